package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"pantry-service/internal/apperr"
)

// YOLO calls the bounding-box detection microservice:
// POST {base}/detect with multipart field "file", GET {base}/health.
type YOLO struct {
	baseURL string
	client  *http.Client
}

func NewYOLO(baseURL string, client *http.Client) *YOLO {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &YOLO{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (y *YOLO) Name() string { return "yolo" }

type yoloBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

type yoloDetection struct {
	ID         int      `json:"id"`
	ClassName  string   `json:"class_name"`
	Confidence *float64 `json:"confidence"`
	BBox       yoloBox  `json:"bbox"`
}

type yoloResponse struct {
	Success          bool            `json:"success"`
	RequestID        string          `json:"request_id"`
	ProcessingTimeMS float64         `json:"processing_time_ms"`
	Detections       []yoloDetection `json:"detections"`
	DetectionCount   int             `json:"detection_count"`
	Detail           any             `json:"detail,omitempty"`
}

func (y *YOLO) Detect(ctx context.Context, img Image) ([]RawObservation, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	filename := img.Filename
	if filename == "" {
		filename = "image"
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, apperr.Wrap(err, "yolo: build multipart")
	}
	if _, err := fw.Write(img.Data); err != nil {
		return nil, apperr.Wrap(err, "yolo: build multipart")
	}
	if err := mw.Close(); err != nil {
		return nil, apperr.Wrap(err, "yolo: build multipart")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, y.baseURL+"/detect", body)
	if err != nil {
		return nil, apperr.Wrap(err, "yolo: new request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, apperr.Mark(apperr.Wrap(err, "yolo: request"), apperr.ErrCapabilityUnavailable)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, apperr.Mark(apperr.Wrap(err, "yolo: read response"), apperr.ErrCapabilityUnavailable)
	}
	if resp.StatusCode/100 != 2 {
		return nil, apperr.Mark(
			apperr.Newf("yolo: service returned status %d", resp.StatusCode),
			apperr.ErrCapabilityUnavailable,
		)
	}

	var out yoloResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, apperr.Mark(apperr.Wrap(err, "yolo: decode response"), apperr.ErrMalformedResponse)
	}
	if !out.Success {
		return nil, apperr.Mark(apperr.Newf("yolo: detection unsuccessful: %v", out.Detail), apperr.ErrCapabilityUnavailable)
	}
	return collapseDetections(out.Detections), nil
}

// collapseDetections merges boxes of the same class into one observation with
// the highest confidence, keeping first-seen order.
func collapseDetections(dets []yoloDetection) []RawObservation {
	type agg struct {
		obs   RawObservation
		boxes int
	}
	index := map[string]int{}
	var aggs []agg
	for _, d := range dets {
		key := strings.ToLower(strings.TrimSpace(d.ClassName))
		i, seen := index[key]
		if !seen {
			index[key] = len(aggs)
			aggs = append(aggs, agg{obs: RawObservation{Name: strings.TrimSpace(d.ClassName), Score: d.Confidence}, boxes: 1})
			continue
		}
		aggs[i].boxes++
		if d.Confidence != nil && (aggs[i].obs.Score == nil || *d.Confidence > *aggs[i].obs.Score) {
			aggs[i].obs.Score = d.Confidence
		}
	}

	out := make([]RawObservation, 0, len(aggs))
	for _, a := range aggs {
		if a.boxes > 1 {
			a.obs.Note = fmt.Sprintf("detected %d times", a.boxes)
		}
		out = append(out, a.obs)
	}
	return out
}

// Healthy reports whether the service answers /health with status "healthy".
func (y *YOLO) Healthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.baseURL+"/health", nil)
	if err != nil {
		return apperr.Wrap(err, "yolo: new request")
	}
	resp, err := y.client.Do(req)
	if err != nil {
		return apperr.Mark(apperr.Wrap(err, "yolo: health"), apperr.ErrCapabilityUnavailable)
	}
	defer resp.Body.Close()

	var body struct {
		Status string `json:"status"`
	}
	if resp.StatusCode/100 != 2 {
		return apperr.Mark(apperr.Newf("yolo: health status %d", resp.StatusCode), apperr.ErrCapabilityUnavailable)
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Status != "healthy" {
		return apperr.Mark(apperr.Newf("yolo: service not healthy (%q)", body.Status), apperr.ErrCapabilityUnavailable)
	}
	return nil
}
