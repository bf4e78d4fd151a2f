package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/menezmethod/macrofx/internal/apierror"
	"github.com/menezmethod/macrofx/internal/middleware"
	"github.com/menezmethod/macrofx/internal/nominal"
)

// QuotaReport describes the caller's usage of the current rate window.
type QuotaReport struct {
	Key           string          `json:"key"`
	Limit         int             `json:"limit"`
	Used          int64           `json:"used"`
	Remaining     int64           `json:"remaining"`
	WindowSeconds nominal.Seconds `json:"window_seconds"`
	ResetAt       time.Time       `json:"reset_at"`
}

// Quota reports how much of the current window the caller has used,
// including this request.
//
//	GET /quota
func Quota(w http.ResponseWriter, c Ctx) {
	key := middleware.APIKeyFromContext(c.Req.Context())
	if key == "" {
		apierror.Write(w, apierror.Unauthorized())
		return
	}

	rl := c.Base.RateLimit
	now := c.Base.Deps.Clock.Now()
	bucket := middleware.WindowBucket(string(key), now, rl.Window)

	raw, found, err := c.Base.Deps.KV.Get(c.Req.Context(), middleware.RateKey(bucket))
	if err != nil {
		c.Base.Logger.Error("quota lookup failed", "err", err)
		apierror.Write(w, apierror.Internal("Quota store unavailable."))
		return
	}
	var used int64
	if found {
		used, _ = strconv.ParseInt(string(raw), 10, 64)
	}

	report := QuotaReport{
		Key:           string(key),
		Limit:         rl.Limit,
		Used:          used,
		Remaining:     max(int64(rl.Limit)-used, 0),
		WindowSeconds: nominal.ToSeconds(nominal.Milliseconds(rl.Window.Milliseconds())),
	}
	if rl.Window > 0 {
		report.ResetAt = middleware.WindowEnd(now, rl.Window).UTC()
	}
	writeJSON(w, http.StatusOK, report)
}
