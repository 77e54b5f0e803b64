// Package framefit computes the border needed to pad a frame to the aspect
// ratio of a display area without cropping.
package framefit

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

const (
	// Ratios closer than this are treated as equal.
	RATIO_ABS_TOLERANCE = 1e-9
	RATIO_REL_TOLERANCE = 1e-9

	// Largest padded side Fit returns.
	MAX_TARGET_SIZE = math.MaxInt32
)

var ErrInvalidDimensions = errors.New("invalid dimensions")

// Mode tells which sides of the frame get padded.
type Mode byte

const (
	ModeNone Mode = iota
	ModeLetterbox
	ModePillarbox
)

func (m Mode) String() string {
	switch m {
	case ModeLetterbox:
		return "letterbox"
	case ModePillarbox:
		return "pillarbox"
	default:
		return "none"
	}
}

// BorderSpec is the padding to add around a frame.
type BorderSpec struct {
	Top    int
	Bottom int
	Left   int
	Right  int
	Color  Color
}

// Width returns the padded width of a frame frameWidth pixels wide.
func (b BorderSpec) Width(frameWidth int) int {
	return frameWidth + b.Left + b.Right
}

// Height returns the padded height of a frame frameHeight pixels high.
func (b BorderSpec) Height(frameHeight int) int {
	return frameHeight + b.Top + b.Bottom
}

func (b BorderSpec) IsZero() bool {
	return b.Top == 0 && b.Bottom == 0 && b.Left == 0 && b.Right == 0
}

func (b BorderSpec) Mode() Mode {
	switch {
	case b.Top+b.Bottom > 0:
		return ModeLetterbox
	case b.Left+b.Right > 0:
		return ModePillarbox
	default:
		return ModeNone
	}
}

// Fit returns the border that brings a frameWidth x frameHeight frame to the
// aspect ratio of an areaWidth x areaHeight display area. When the area is
// narrower than the frame, top and bottom are padded; when it is wider, left
// and right are. Odd paddings put the extra pixel on the bottom or right.
func Fit(frameWidth, frameHeight, areaWidth, areaHeight int, border Color) (BorderSpec, error) {
	spec := BorderSpec{Color: border}

	if frameWidth <= 0 || frameHeight <= 0 || areaWidth <= 0 || areaHeight <= 0 {
		return spec, fmt.Errorf("%w: frame %dx%d, area %dx%d",
			ErrInvalidDimensions, frameWidth, frameHeight, areaWidth, areaHeight)
	}

	frameRatio := float64(frameWidth) / float64(frameHeight)
	areaRatio := float64(areaWidth) / float64(areaHeight)

	if scalar.EqualWithinAbsOrRel(frameRatio, areaRatio, RATIO_ABS_TOLERANCE, RATIO_REL_TOLERANCE) {
		return spec, nil
	}

	if areaRatio < frameRatio {
		targetHeight := math.Round(float64(frameWidth) / areaRatio)
		if targetHeight > MAX_TARGET_SIZE {
			return BorderSpec{Color: border}, fmt.Errorf("%w: padded height %.0f exceeds %d",
				ErrInvalidDimensions, targetHeight, MAX_TARGET_SIZE)
		}
		spec.Top, spec.Bottom = split(int(targetHeight) - frameHeight)
	} else {
		targetWidth := math.Round(float64(frameHeight) * areaRatio)
		if targetWidth > MAX_TARGET_SIZE {
			return BorderSpec{Color: border}, fmt.Errorf("%w: padded width %.0f exceeds %d",
				ErrInvalidDimensions, targetWidth, MAX_TARGET_SIZE)
		}
		spec.Left, spec.Right = split(int(targetWidth) - frameWidth)
	}
	return spec, nil
}

func split(total int) (int, int) {
	if total <= 0 {
		return 0, 0
	}
	first := total / 2
	return first, total - first
}
