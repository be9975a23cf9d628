package store

import (
	"github.com/ohrstrom/edi-dab/pkg/edi/bus"
	"github.com/ohrstrom/edi-dab/pkg/edi/pad"
	"github.com/ohrstrom/edi-dab/pkg/logger"
)

// Archiver subscribes to a bus and persists DlObjectReceived/
// MotImageReceived events into the database as they arrive.
type Archiver struct {
	labels *DlLabelRepository
	slides *MotSlideRepository
	log    *logger.Logger
}

// NewArchiver creates an Archiver backed by db.
func NewArchiver(db *DB, log *logger.Logger) *Archiver {
	if log == nil {
		log = logger.New(logger.Config{Level: "error"})
	}
	return &Archiver{
		labels: NewDlLabelRepository(db.GetDB()),
		slides: NewMotSlideRepository(db.GetDB()),
		log:    log.WithComponent("store.archiver"),
	}
}

// Subscribe registers the archiver on b and returns an unsubscribe func.
func (a *Archiver) Subscribe(b *bus.Bus) func() {
	ch, unsubscribe := b.Subscribe()
	go func() {
		for ev := range ch {
			a.handle(ev)
		}
	}()
	return unsubscribe
}

func (a *Archiver) handle(ev bus.Event) {
	switch ev.Kind {
	case bus.KindDlObjectReceived:
		obj, ok := ev.Data.(*pad.DlObject)
		if !ok {
			return
		}
		label := &DlLabel{SCID: obj.SCID, Label: obj.Label(), IsDlPlus: obj.IsDlPlus()}
		if err := a.labels.Create(label); err != nil {
			a.log.Warn("failed to archive dl label", logger.Error(err))
		}
	case bus.KindMotImageReceived:
		img, ok := ev.Data.(*pad.MotImage)
		if !ok {
			return
		}
		slide := &MotSlide{
			SCID:     img.SCID,
			MimeType: img.MimeType,
			MD5:      img.MD5Hex(),
			Len:      img.Len,
			Data:     img.Data,
		}
		if err := a.slides.Create(slide); err != nil {
			a.log.Warn("failed to archive mot slide", logger.Error(err))
		}
	}
}
