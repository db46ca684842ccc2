package libwebrtc

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/pion/webrtc/v4"
)

type statsReport struct{}

var statsReportDesc = refcounted[statsReport]("webrtc_RTCStatsReport")

var webrtcRTCStatsReportToJSON func(self uintptr) uintptr

func init() {
	bind(symbol{"webrtc_RTCStatsReport_ToJson", &webrtcRTCStatsReportToJSON})
}

// Stats is one entry of a stats report, keyed by its JSON member names.
type Stats map[string]any

// ID returns the stats object id.
func (s Stats) ID() string {
	id, _ := s["id"].(string)
	return id
}

// Type returns the stats object type, such as "inbound-rtp".
func (s Stats) Type() webrtc.StatsType {
	t, _ := s["type"].(string)
	return webrtc.StatsType(t)
}

// StatsReport is a decoded webrtc::RTCStatsReport.
type StatsReport struct {
	Stats map[string]Stats
}

// parseStatsReport decodes the JSON produced by RTCStatsReport::ToJson, an
// array of stats objects.
func parseStatsReport(data []byte) (*StatsReport, error) {
	var entries []Stats
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode stats report: %w", err)
	}
	r := &StatsReport{Stats: make(map[string]Stats, len(entries))}
	for _, e := range entries {
		r.Stats[e.ID()] = e
	}
	return r, nil
}

// ByType returns the entries of type t ordered by id.
func (r *StatsReport) ByType(t webrtc.StatsType) []Stats {
	var out []Stats
	for _, s := range r.Stats {
		if s.Type() == t {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// statsCollectorCallbacks is the closure behind one GetStats request.
type statsCollectorCallbacks struct {
	OnStatsDelivered func(report *StatsReport, err error)
}

type statsCollectorCbs struct {
	OnStatsDelivered uintptr
}

const statsCollectorIface = "webrtc_RTCStatsCollectorCallback"

var statsCollectorTrampolines = sync.OnceValue(func() statsCollectorCbs {
	return statsCollectorCbs{OnStatsDelivered: newCallback(statsCollectorOnStatsDelivered)}
})

func statsCollectorOnStatsDelivered(report, userData uintptr) {
	dispatchVoid(statsCollectorIface, "OnStatsDelivered", userData,
		func(c *statsCollectorCallbacks, _ *Scope) {
			if report == 0 {
				contractViolation(statsCollectorIface, "OnStatsDelivered with null report")
			}
			ref := FromRaw(statsReportDesc, RefPtr[statsReport](report))
			text := takeStdString(webrtcRTCStatsReportToJSON(uintptr(ref.AsPtr())))
			ref.Release()
			c.OnStatsDelivered(parseStatsReport([]byte(text)))
		})
	completeOneShot(statsCollectorIface, userData)
}
