package domain

import (
	"fmt"
	"math"
	"strings"
)

// MediaTag is the placement of a sponsor medium in the mobile UI.
type MediaTag string

const (
	TagMain     MediaTag = "Main"
	TagHeader   MediaTag = "Header"
	TagSection1 MediaTag = "Section1"
	TagSection2 MediaTag = "Section2"
)

// ValidTags returns every placement tag.
func ValidTags() []MediaTag {
	return []MediaTag{TagMain, TagHeader, TagSection1, TagSection2}
}

// ParseTag accepts a tag name case-insensitively.
func ParseTag(s string) (MediaTag, bool) {
	for _, t := range ValidTags() {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, true
		}
	}
	return "", false
}

// Aspect ratio tolerances. Video encoders round frame sizes, so video gets
// the wider band.
const (
	ImageRatioTolerance = 0.01
	VideoRatioTolerance = 0.1
)

var (
	ratioLandscape = 16.0 / 9.0
	ratioPortrait  = 9.0 / 16.0
)

// Constraint is the rule for one content category within a profile. A zero
// minimum disables the dimension check.
type Constraint struct {
	ContentTypes []string  `json:"contentTypes"`
	Ratios       []float64 `json:"ratios"`
	MinWidth     int       `json:"minWidth"`
	MinHeight    int       `json:"minHeight"`
}

// Profile groups the image and video constraints of one placement.
type Profile struct {
	Name  string     `json:"name"`
	Image Constraint `json:"image"`
	Video Constraint `json:"video"`
}

var (
	landscapeProfile = Profile{
		Image: Constraint{
			ContentTypes: []string{"image/jpeg"},
			Ratios:       []float64{ratioLandscape},
			MinWidth:     1000,
			MinHeight:    562,
		},
		Video: Constraint{
			ContentTypes: []string{"video/mp4", "video/quicktime"},
			Ratios:       []float64{ratioLandscape, ratioPortrait},
			MinWidth:     640,
			MinHeight:    480,
		},
	}
	portraitProfile = Profile{
		Image: Constraint{
			ContentTypes: []string{"image/jpeg"},
			Ratios:       []float64{ratioPortrait},
			MinWidth:     563,
			MinHeight:    1000,
		},
		Video: Constraint{
			ContentTypes: []string{"video/mp4", "video/quicktime"},
			Ratios:       []float64{ratioPortrait},
		},
	}
)

// ProfileFor selects the constraint profile for a medium. Products share one
// default profile; sponsor media are selected by tag.
func ProfileFor(kind RecordKind, tag MediaTag) (Profile, error) {
	if kind == KindProduct {
		p := landscapeProfile
		p.Name = "Product"
		return p, nil
	}
	switch tag {
	case TagMain, TagHeader:
		p := landscapeProfile
		p.Name = string(tag)
		return p, nil
	case TagSection1, TagSection2:
		p := portraitProfile
		p.Name = string(tag)
		return p, nil
	case "":
		return Profile{}, fmt.Errorf("a tag is required for sponsor media")
	default:
		return Profile{}, fmt.Errorf("unknown media tag %q", tag)
	}
}

// Check validates a decoded medium against the profile and returns a
// human-readable reason on failure.
func (p Profile) Check(contentType string, width, height int) error {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	video := strings.HasPrefix(ct, "video/")
	c, tol := p.Image, ImageRatioTolerance
	if video {
		c, tol = p.Video, VideoRatioTolerance
	}

	if !contains(c.ContentTypes, ct) {
		return fmt.Errorf("content type %q is not allowed, expected one of %s",
			contentType, strings.Join(c.ContentTypes, ", "))
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("could not read media dimensions")
	}

	ratio := float64(width) / float64(height)
	if !matchesRatio(ratio, c.Ratios, tol) {
		return fmt.Errorf("aspect ratio %.3f does not match %s", ratio, describeRatios(c.Ratios))
	}
	if (c.MinWidth > 0 || c.MinHeight > 0) && (width < c.MinWidth || height < c.MinHeight) {
		return fmt.Errorf("dimensions %dx%d are below the minimum %dx%d",
			width, height, c.MinWidth, c.MinHeight)
	}
	return nil
}

func matchesRatio(ratio float64, targets []float64, tol float64) bool {
	for _, t := range targets {
		if math.Abs(ratio-t) <= tol {
			return true
		}
	}
	return false
}

func describeRatios(ratios []float64) string {
	names := make([]string, 0, len(ratios))
	for _, r := range ratios {
		switch r {
		case ratioLandscape:
			names = append(names, "16:9")
		case ratioPortrait:
			names = append(names, "9:16")
		default:
			names = append(names, fmt.Sprintf("%.3f", r))
		}
	}
	return strings.Join(names, " or ")
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
