package netevents

import (
	"fmt"
	"strings"
)

// Category is a group of events that observers register for.
type Category uint8

// Category values.
const (
	CategoryReceive Category = iota
	CategorySend
	CategoryError
	CategoryNotification
)

func (c Category) String() string {
	switch c {
	case CategoryReceive:
		return "receive"
	case CategorySend:
		return "send"
	case CategoryError:
		return "error"
	case CategoryNotification:
		return "notification"
	}
	return fmt.Sprintf("Category(%d)", uint8(c))
}

// Kind identifies the type of an event record.
type Kind uint8

// Kind values.
const (
	KindReceiveReady Kind = iota
	KindTransferComplete
	KindHalfComplete
	KindTransferError
	KindNotification
)

func (k Kind) String() string {
	switch k {
	case KindReceiveReady:
		return "ReceiveReady"
	case KindTransferComplete:
		return "TransferComplete"
	case KindHalfComplete:
		return "HalfComplete"
	case KindTransferError:
		return "TransferError"
	case KindNotification:
		return "Notification"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Category returns the category that observers of this kind register for.
func (k Kind) Category() Category {
	switch k {
	case KindReceiveReady:
		return CategoryReceive
	case KindTransferComplete, KindHalfComplete:
		return CategorySend
	case KindTransferError:
		return CategoryError
	}
	return CategoryNotification
}

// Notice identifies the subject of a Notification event.
type Notice uint8

// Notice values.
const (
	NoticeNone Notice = iota
	NoticeEngineStarted
	NoticeEngineStopped
	NoticeReceiveHalfComplete
	NoticeBufferReleased
)

func (n Notice) String() string {
	switch n {
	case NoticeNone:
		return "none"
	case NoticeEngineStarted:
		return "engine-started"
	case NoticeEngineStopped:
		return "engine-stopped"
	case NoticeReceiveHalfComplete:
		return "receive-half-complete"
	case NoticeBufferReleased:
		return "buffer-released"
	}
	return fmt.Sprintf("Notice(%d)", uint8(n))
}

// Event is a transient event record.
type Event struct {
	Kind    Kind
	Channel int       // hardware channel that raised the event
	Index   int       // descriptor index, or -1 if not applicable
	Error   ErrorKind // error code of KindTransferError
	Cause   uint32    // raw status bits or sub-cause
	Notice  Notice    // subject of KindNotification
}

// Category returns the category of this event.
func (evt Event) Category() Category {
	return evt.Kind.Category()
}

func (evt Event) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s ch=%d", evt.Kind, evt.Channel)
	if evt.Index >= 0 {
		fmt.Fprintf(&b, " index=%d", evt.Index)
	}
	switch evt.Kind {
	case KindTransferError:
		fmt.Fprintf(&b, " error=%q cause=0x%08X", evt.Error, evt.Cause)
	case KindNotification:
		fmt.Fprintf(&b, " notice=%s", evt.Notice)
	}
	return b.String()
}

// ErrorEvent constructs an Error event.
func ErrorEvent(channel, index int, kind ErrorKind, cause uint32) Event {
	return Event{
		Kind:    KindTransferError,
		Channel: channel,
		Index:   index,
		Error:   kind,
		Cause:   cause,
	}
}

// NotificationEvent constructs a Notification event.
func NotificationEvent(channel int, notice Notice) Event {
	return Event{
		Kind:    KindNotification,
		Channel: channel,
		Index:   -1,
		Notice:  notice,
	}
}
