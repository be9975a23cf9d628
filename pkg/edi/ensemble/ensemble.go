// Package ensemble accumulates the deti tag's FIG stream into a single,
// monotonically growing model of the ensemble currently being received:
// its identity and label, its services, and their components.
package ensemble

import (
	"fmt"

	"github.com/ohrstrom/edi-dab/pkg/edi/bus"
	"github.com/ohrstrom/edi-dab/pkg/edi/frame"
	"github.com/ohrstrom/edi-dab/pkg/edi/msc"
	"github.com/ohrstrom/edi-dab/pkg/edi/tables"
)

// Subchannel is one FIG 0/1 subchannel organization entry, as merged
// into the ensemble model.
type Subchannel struct {
	ID      uint8
	Start   int
	HasSize bool
	Size    int
	PL      string
	Bitrate int
}

// ServiceComponent is one service's component: its subchannel link,
// language, user applications, and (once an AU stream has been decoded)
// audio format.
type ServiceComponent struct {
	SCID        uint8
	Language    *tables.Language
	SubChannelID *uint8
	UserApps    []tables.UserApplication
	AudioFormat *msc.AudioFormat
}

// Service is one ensemble service and its components.
type Service struct {
	SID        uint16
	Label      string
	ShortLabel string
	Components []ServiceComponent
}

// Ensemble is the merged model built up from every deti tag's FIGs.
// Fields are pointers/zero-valued until the corresponding FIG has been
// seen; Complete reports whether enough FIGs have arrived to consider
// the model usable.
type Ensemble struct {
	EID         *uint16
	AlarmFlag   *bool
	Label       string
	ShortLabel  string
	Services    []Service
	Subchannels []Subchannel
	Complete    bool
}

// New creates an empty Ensemble model.
func New() *Ensemble {
	return &Ensemble{}
}

func (e *Ensemble) String() string {
	eid := uint16(0)
	if e.EID != nil {
		eid = *e.EID
	}
	return fmt.Sprintf("0x%04X  %-16s  %3d services", eid, e.Label, len(e.Services))
}

// ServiceSCID resolves a service id to the subchannel id carrying its
// primary (first-registered) component, for callers that let an operator
// select a service by sid rather than a subchannel directly. It reports
// false until the service's FIG 0/2 entry has been merged.
func (e *Ensemble) ServiceSCID(sid uint16) (uint8, bool) {
	svc := e.service(sid)
	if svc == nil || len(svc.Components) == 0 {
		return 0, false
	}
	return svc.Components[0].SCID, true
}

func (e *Ensemble) service(sid uint16) *Service {
	for i := range e.Services {
		if e.Services[i].SID == sid {
			return &e.Services[i]
		}
	}
	return nil
}

func (e *Ensemble) subchannel(id uint8) *Subchannel {
	for i := range e.Subchannels {
		if e.Subchannels[i].ID == id {
			return &e.Subchannels[i]
		}
	}
	return nil
}

// Feed merges the FIGs carried by one deti tag into the model, emitting
// an EnsembleUpdated event on b (if non-nil) whenever any field changed.
// It reports whether anything changed.
func (e *Ensemble) Feed(tag *frame.DetiTag, b *bus.Bus) bool {
	if tag == nil {
		return false
	}
	updated := false

	for _, f := range tag.FIGs {
		switch {
		case f.F0_0 != nil:
			if e.EID == nil || *e.EID != f.F0_0.EID {
				eid := f.F0_0.EID
				e.EID = &eid
				updated = true
			}
			if e.AlarmFlag == nil || *e.AlarmFlag != f.F0_0.Alarm {
				alarm := f.F0_0.Alarm
				e.AlarmFlag = &alarm
				updated = true
			}

		case f.F0_1 != nil:
			for _, sc := range f.F0_1.Subchannels {
				existing := e.subchannel(sc.ID)
				if existing == nil {
					e.Subchannels = append(e.Subchannels, Subchannel{
						ID: sc.ID, Start: sc.Start, HasSize: sc.HasSize,
						Size: sc.Size, PL: sc.PL, Bitrate: sc.Bitrate,
					})
					updated = true
					continue
				}
				if existing.Start != sc.Start || existing.Size != sc.Size ||
					existing.Bitrate != sc.Bitrate || existing.PL != sc.PL {
					existing.Start = sc.Start
					existing.HasSize = sc.HasSize
					existing.Size = sc.Size
					existing.Bitrate = sc.Bitrate
					existing.PL = sc.PL
					updated = true
				}
			}

		case f.F0_2 != nil:
			for _, entry := range f.F0_2.Services {
				if entry.CA {
					continue
				}
				service := e.service(entry.SID)
				if service == nil {
					e.Services = append(e.Services, Service{
						SID:        entry.SID,
						Components: []ServiceComponent{{SCID: entry.SCID, SubChannelID: scidPtr(entry.SCID)}},
					})
					updated = true
					continue
				}
				found := false
				for _, c := range service.Components {
					if c.SCID == entry.SCID {
						found = true
						break
					}
				}
				if !found {
					service.Components = append(service.Components, ServiceComponent{
						SCID: entry.SCID, SubChannelID: scidPtr(entry.SCID),
					})
					updated = true
				}
			}

		case f.F0_5 != nil:
			for _, lang := range f.F0_5.Services {
				for si := range e.Services {
					for ci := range e.Services[si].Components {
						comp := &e.Services[si].Components[ci]
						if comp.SCID != lang.SCID {
							continue
						}
						if comp.Language == nil || *comp.Language != lang.Language {
							l := lang.Language
							comp.Language = &l
							updated = true
						}
					}
				}
			}

		case f.F0_13 != nil:
			for _, entry := range f.F0_13.Services {
				service := e.service(entry.SID)
				if service == nil {
					continue
				}
				if entry.SCIdS == 0 {
					for ci := range service.Components {
						if !sameApps(service.Components[ci].UserApps, entry.Apps) {
							service.Components[ci].UserApps = entry.Apps
							updated = true
						}
					}
				} else {
					for i := uint8(0); i < 8; i++ {
						if entry.SCIdS&(1<<i) == 0 {
							continue
						}
						for ci := range service.Components {
							if service.Components[ci].SCID != i {
								continue
							}
							if !sameApps(service.Components[ci].UserApps, entry.Apps) {
								service.Components[ci].UserApps = entry.Apps
								updated = true
							}
						}
					}
				}
			}

		case f.F1_0 != nil:
			if e.Label != f.F1_0.Label {
				e.Label = f.F1_0.Label
				updated = true
			}
			if e.ShortLabel != f.F1_0.ShortLabel {
				e.ShortLabel = f.F1_0.ShortLabel
				updated = true
			}

		case f.F1_1 != nil:
			service := e.service(f.F1_1.SID)
			if service != nil {
				if service.Label != f.F1_1.Label {
					service.Label = f.F1_1.Label
					updated = true
				}
				if service.ShortLabel != f.F1_1.ShortLabel {
					service.ShortLabel = f.F1_1.ShortLabel
					updated = true
				}
			}
		}
	}

	if updated {
		e.Complete = e.EID != nil && e.Label != "" && e.allServicesLabeled()
		if b != nil {
			b.Emit(bus.Event{Kind: bus.KindEnsembleUpdated, Data: e})
		}
	}

	return updated
}

// UpdateAudioFormat records the decoded audio format for the service
// component with the given subchannel id, emitting EnsembleUpdated on b
// (if non-nil) when it changed.
func (e *Ensemble) UpdateAudioFormat(scid uint8, format *msc.AudioFormat, b *bus.Bus) bool {
	updated := false
	for si := range e.Services {
		for ci := range e.Services[si].Components {
			comp := &e.Services[si].Components[ci]
			if comp.SCID != scid {
				continue
			}
			if !sameAudioFormat(comp.AudioFormat, format) {
				comp.AudioFormat = format
				updated = true
			}
		}
	}
	if updated && b != nil {
		b.Emit(bus.Event{Kind: bus.KindEnsembleUpdated, Data: e})
	}
	return updated
}

// Reset clears every field of the model (identity, labels, services,
// subchannels, and the Complete flag), leaving nothing behind for a new
// tuning session to build on top of.
func (e *Ensemble) Reset() {
	e.EID = nil
	e.AlarmFlag = nil
	e.Label = ""
	e.ShortLabel = ""
	e.Services = nil
	e.Subchannels = nil
	e.Complete = false
}

func (e *Ensemble) allServicesLabeled() bool {
	for _, s := range e.Services {
		if s.Label == "" {
			return false
		}
	}
	return true
}

func scidPtr(v uint8) *uint8 { return &v }

func sameApps(a, b []tables.UserApplication) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameAudioFormat(a, b *msc.AudioFormat) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
