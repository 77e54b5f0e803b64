package camtab

import (
	"gocv.io/x/gocv"

	"go-quadcam-tab/framefit"
)

// Composite pads src with spec's border into dst.
func Composite(src gocv.Mat, spec framefit.BorderSpec, dst *gocv.Mat) {
	if spec.IsZero() {
		src.CopyTo(dst)
		return
	}
	gocv.CopyMakeBorder(src, dst, spec.Top, spec.Bottom, spec.Left, spec.Right, gocv.BorderConstant, spec.Color.ToRGBA())
}
