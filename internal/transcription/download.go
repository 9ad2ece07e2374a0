package transcription

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/suPer8Hu/tutor-platform/internal/lesson"
)

// transcripts of multi-hour lessons stay well under this
const maxPayloadBytes = 64 << 20

// Download fetches the finished transcription file behind a pre-signed URL.
// A 403 is reported as ErrAccessDenied; every other failure as ErrDownload.
// Nothing is retried.
func (s *Service) Download(ctx context.Context, url string) ([]lesson.Segment, error) {
	cctx, cancel := context.WithTimeout(ctx, s.downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w transcription: %v", ErrDownload, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w transcription: %v", ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: Access denied when downloading transcription. Please check the URL permissions.", ErrAccessDenied)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w transcription: status %d", ErrDownload, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("%w transcription: %v", ErrDownload, err)
	}
	segs, err := lesson.ParseSegments(body)
	if err != nil {
		return nil, fmt.Errorf("%w transcription: %v", ErrDownload, err)
	}
	return segs, nil
}
