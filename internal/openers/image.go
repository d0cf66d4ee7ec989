package openers

import (
	"context"

	"github.com/gruntwork-io/imgopen/internal/decode"
	"github.com/gruntwork-io/imgopen/internal/pipeline"
	"github.com/gruntwork-io/imgopen/internal/source"
)

// Image hands files to the decode backend.
type Image struct {
	decoder pipeline.Decoder
}

// NewImage returns an image opener, decoding with the header decoder when decoder is nil.
func NewImage(decoder pipeline.Decoder) *Image {
	if decoder == nil {
		decoder = decode.New()
	}

	return &Image{decoder: decoder}
}

func (opener *Image) Name() string { return ImageName }

func (opener *Image) Filter() pipeline.Filter {
	return pipeline.Filter{
		Kinds:      []source.Kind{source.KindFile},
		MimeTypes:  decode.MimeTypes,
		Extensions: decode.Extensions,
	}
}

func (opener *Image) Open(job *pipeline.Job, res *pipeline.Results, src *source.Source) {
	var (
		img *source.Image
		err error
	)

	job.Go(res, func(ctx context.Context) {
		img, err = opener.decoder.Decode(ctx, job.FS(), src)
	}, func() {
		if err != nil {
			_ = res.Fail(err)
			return
		}

		_ = res.AddImage(img)
		_ = res.Complete()
	})
}
