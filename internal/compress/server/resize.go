package server

import (
	"fmt"

	vips "github.com/davidbyttow/govips/v2/vips"

	"image-compressor/internal/domain"
)

// applyResize mutates ref in place according to the target box and fit
// mode. A zero box leaves the image untouched; a single zero axis
// scales proportionally against the other. Upscaling past the source
// dimensions only happens when opts.AllowEnlargement is set.
func applyResize(ref *vips.ImageRef, opts domain.ServerOptions) error {
	width, height := opts.Width, opts.Height
	if width <= 0 && height <= 0 {
		return nil
	}

	if width <= 0 || height <= 0 {
		return scaleToAxis(ref, width, height, opts.AllowEnlargement)
	}

	size := vips.SizeDown
	if opts.AllowEnlargement {
		size = vips.SizeBoth
	}

	switch opts.Fit {
	case domain.FitCover:
		return ref.ThumbnailWithSize(width, height, vips.InterestingCentre, size)

	case domain.FitInside, "":
		return ref.ThumbnailWithSize(width, height, vips.InterestingNone, size)

	case domain.FitFill:
		return ref.ThumbnailWithSize(width, height, vips.InterestingNone, vips.SizeForce)

	case domain.FitContain:
		if err := ref.ThumbnailWithSize(width, height, vips.InterestingNone, size); err != nil {
			return err
		}
		left := (width - ref.Width()) / 2
		top := (height - ref.Height()) / 2
		return ref.Embed(left, top, width, height, vips.ExtendBlack)

	case domain.FitOutside:
		scaleW := float64(width) / float64(ref.Width())
		scaleH := float64(height) / float64(ref.Height())
		scale := scaleW
		if scaleH > scale {
			scale = scaleH
		}
		if !opts.AllowEnlargement && scale > 1 {
			scale = 1
		}
		if scale == 1 {
			return nil
		}
		return ref.Resize(scale, vips.KernelLanczos3)

	default:
		return fmt.Errorf("unknown fit mode: %q", opts.Fit)
	}
}

func scaleToAxis(ref *vips.ImageRef, width, height int, allowEnlargement bool) error {
	var scale float64
	if width > 0 {
		scale = float64(width) / float64(ref.Width())
	} else {
		scale = float64(height) / float64(ref.Height())
	}
	if !allowEnlargement && scale > 1 {
		scale = 1
	}
	if scale == 1 {
		return nil
	}
	return ref.Resize(scale, vips.KernelLanczos3)
}
