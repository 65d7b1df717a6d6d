package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"AgriGenie/internal/collector"
	"AgriGenie/internal/model"
	"AgriGenie/internal/recorder"
	"AgriGenie/internal/trend"
)

const maxBodyBytes = 1 << 20

type snapshotQuery struct {
	State     string `validate:"max=64"`
	Commodity string `validate:"max=64"`
	Limit     int    `validate:"gte=0,lte=500"`
}

type latestQuery struct {
	State     string `validate:"required,max=64"`
	Commodity string `validate:"required,max=64"`
}

func queryInt(r *http.Request, key string) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest{msg: fmt.Sprintf("%s must be an integer", key)}
	}
	return n, nil
}

func queryString(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// handleTrendQuery collects live records for a market and returns the trend.
func (s *Server) handleTrendQuery(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := model.MarketQuery{
		State:     queryString(r, "state"),
		Commodity: queryString(r, "commodity"),
		Market:    queryString(r, "market"),
		District:  queryString(r, "district"),
		Limit:     limit,
	}
	if err := s.validate.Struct(q); err != nil {
		s.fail(w, r, err)
		return
	}

	snap, err := s.collector.Collect(r.Context(), q)
	if err != nil {
		if !errors.Is(err, collector.ErrNoRecords) && r.Context().Err() == nil {
			err = fmt.Errorf("%w: %w", errUpstream, err)
		}
		s.fail(w, r, err)
		return
	}
	if err := s.recorder.RecordSnapshot(r.Context(), snap); err != nil {
		s.logger.Warn("record snapshot failed", zap.Stringer("query", q), zap.Error(err))
	}

	w.Header().Set("X-Snapshot-ID", snap.ID)
	render.JSON(w, r, snap.Result)
}

type recordsRequest struct {
	Records json.RawMessage `json:"records"`
}

// handleTrendRecords computes a trend over caller-supplied records, which
// must already be ordered newest first.
func (s *Server) handleTrendRecords(w http.ResponseWriter, r *http.Request) {
	var req recordsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.fail(w, r, badRequest{msg: "request body must be a JSON object"})
		return
	}
	body := bytes.TrimSpace(req.Records)
	if len(body) == 0 || body[0] != '[' {
		s.fail(w, r, badRequest{msg: "records must be an array"})
		return
	}

	var raw []model.RawRecord
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		s.fail(w, r, badRequest{msg: "records must be an array of objects"})
		return
	}

	res := s.engine.Compute(trend.Normalize(raw))
	render.JSON(w, r, res)
}

// handleSnapshots lists recorded snapshots, newest first.
func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := snapshotQuery{State: queryString(r, "state"), Commodity: queryString(r, "commodity"), Limit: limit}
	if err := s.validate.Struct(q); err != nil {
		s.fail(w, r, err)
		return
	}

	snaps, err := s.recorder.RecentSnapshots(r.Context(), recorder.SnapshotFilter{
		State:     q.State,
		Commodity: q.Commodity,
		Limit:     q.Limit,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, snaps)
}

// handleLatestSnapshot returns the newest snapshot for one series.
func (s *Server) handleLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	q := latestQuery{State: queryString(r, "state"), Commodity: queryString(r, "commodity")}
	if err := s.validate.Struct(q); err != nil {
		s.fail(w, r, err)
		return
	}

	snap, err := s.recorder.LatestSnapshot(r.Context(), q.State, q.Commodity)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, snap)
}
