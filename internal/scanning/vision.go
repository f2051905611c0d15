package scanning

import (
	"context"
	"fmt"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// Vision implements the Scanner interface using Google Cloud Vision
// document text detection
type Vision struct {
	client *vision.ImageAnnotatorClient
}

// NewVision creates a new Vision Scanner instance. With an empty
// credentialsFile the application default credentials are used.
func NewVision(ctx context.Context, credentialsFile string) (*Vision, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating vision client: %w", err)
	}
	return &Vision{client: client}, nil
}

// ScanDocument runs document text detection on the image
func (v *Vision) ScanDocument(ctx context.Context, imageData []byte, contentType string) (*Document, error) {
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: imageData},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("calling vision API: %w", err)
	}
	if len(resp.GetResponses()) == 0 {
		return nil, ErrNoPages
	}

	imageResp := resp.GetResponses()[0]
	if imageResp.GetError() != nil {
		return nil, fmt.Errorf("vision API error: %s", imageResp.GetError().GetMessage())
	}

	text := imageResp.GetFullTextAnnotation().GetText()
	if text == "" {
		return nil, ErrNoPages
	}
	return singlePage("google-vision", text), nil
}

// Close closes the Vision client
func (v *Vision) Close() error {
	return v.client.Close()
}
