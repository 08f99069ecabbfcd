package api

import (
	"net/http"

	ot "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

// handleInfo reports build/version details, mostly so hudctl can sanity
// check which huddled it's talking to.
func (s *HuddleAPI) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	span := ot.StartSpan("api_info", ext.SpanKindRPCServer)
	defer span.Finish()

	info := map[string]string{
		"instanceId": s.Config.InstanceID,
		"tier":       s.Config.Tier,
	}
	for k, v := range s.BuildInfo {
		info[k] = v
	}
	writeJSON(w, http.StatusOK, info)
}
