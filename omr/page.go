package omr

import (
	"context"
	"image"

	"github.com/jsphweid/scoretrack/constants"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

var (
	// ErrBadInput marks a page that could not be decoded.
	ErrBadInput = errors.New("omr: bad input")
	// ErrNoMusic marks a page without any staff system.
	ErrNoMusic = errors.New("omr: no music detected")
)

// Decode reads an encoded page image and binarizes it at the canonical size.
func Decode(data []byte) (gocv.Mat, error) {
	if len(data) == 0 {
		return gocv.Mat{}, errors.Wrap(ErrBadInput, "empty page")
	}
	img, err := gocv.IMDecode(data, gocv.IMReadGrayScale)
	if err != nil {
		return gocv.Mat{}, errors.Wrap(ErrBadInput, err.Error())
	}
	if img.Empty() {
		img.Close()
		return gocv.Mat{}, errors.Wrap(ErrBadInput, "undecodable page")
	}
	defer img.Close()
	return Binarize(img), nil
}

// Binarize resizes a grayscale page to the canonical page size and
// thresholds it to pure black and white.
func Binarize(gray gocv.Mat) gocv.Mat {
	sized := gocv.NewMat()
	defer sized.Close()
	if gray.Cols() != constants.PageWidth || gray.Rows() != constants.PageHeight {
		gocv.Resize(gray, &sized, image.Pt(constants.PageWidth, constants.PageHeight), 0, 0, gocv.InterpolationLinear)
	} else {
		gray.CopyTo(&sized)
	}

	bin := gocv.NewMat()
	gocv.Threshold(sized, &bin, constants.BinarizeThreshold, 255, gocv.ThresholdBinary)
	return bin
}

func checkCtx(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "page")
	}
	return nil
}
