package ndexpress

import (
	"context"
	"encoding/base64"
)

// UploadReceipt stores a receipt image and returns its public URL.
func (c *Client) UploadReceipt(ctx context.Context, fileName string, data []byte) (*Receipt, error) {
	body := map[string]string{
		"file_base64": base64.StdEncoding.EncodeToString(data),
		"file_name":   fileName,
	}
	var resp envelope[*Receipt]
	if err := c.post(ctx, "/receipts", body, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// AnalyzeReceipt extracts launch data from a receipt image.
func (c *Client) AnalyzeReceipt(ctx context.Context, data []byte) (*Extraction, error) {
	body := map[string]string{
		"image_base64": base64.StdEncoding.EncodeToString(data),
	}
	var resp envelope[*Extraction]
	if err := c.post(ctx, "/vision/analyze", body, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
