package store

import (
	"testing"
	"time"

	"github.com/ohrstrom/edi-dab/pkg/edi/bus"
	"github.com/ohrstrom/edi-dab/pkg/edi/pad"
	"github.com/ohrstrom/edi-dab/pkg/logger"
)

func TestArchiver_PersistsDlObjectReceived(t *testing.T) {
	db := newTestDB(t)
	a := NewArchiver(db, logger.New(logger.Config{Level: "error"}))
	b := bus.New()
	unsubscribe := a.Subscribe(b)
	defer unsubscribe()

	b.Emit(bus.Event{Kind: bus.KindDlObjectReceived, Data: &pad.DlObject{SCID: 2, Chars: []byte("Hi!")}})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		labels, err := NewDlLabelRepository(db.GetDB()).GetRecent(2, 10)
		if err != nil {
			t.Fatalf("GetRecent failed: %v", err)
		}
		if len(labels) == 1 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("expected archived dl label within timeout")
}

func TestArchiver_PersistsMotImageReceived(t *testing.T) {
	db := newTestDB(t)
	a := NewArchiver(db, logger.New(logger.Config{Level: "error"}))
	b := bus.New()
	unsubscribe := a.Subscribe(b)
	defer unsubscribe()

	b.Emit(bus.Event{Kind: bus.KindMotImageReceived, Data: &pad.MotImage{SCID: 3, MimeType: "image/jpeg", Len: 2, Data: []byte{1, 2}}})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		slides, err := NewMotSlideRepository(db.GetDB()).GetRecent(3, 10)
		if err != nil {
			t.Fatalf("GetRecent failed: %v", err)
		}
		if len(slides) == 1 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("expected archived mot slide within timeout")
}
