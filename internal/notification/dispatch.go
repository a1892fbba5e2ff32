package notification

import (
	"context"
	"fmt"
	"sync"
)

// Message is one notification to hand to a Dispatcher
type Message struct {
	Channel Channel
	Kind    Kind
	Payload Payload
}

// DispatchAll sends msgs concurrently and waits for all of them. The returned
// slice holds the error of each message at the same index; nil entries were
// dispatched. One failure never stops the others.
func DispatchAll(ctx context.Context, d Dispatcher, msgs ...Message) []error {
	errs := make([]error, len(msgs))
	var wg sync.WaitGroup
	wg.Add(len(msgs))
	for i, m := range msgs {
		go func() {
			defer wg.Done()
			errs[i] = dispatch(ctx, d, m)
		}()
	}
	wg.Wait()
	return errs
}

func dispatch(ctx context.Context, d Dispatcher, m Message) error {
	switch m.Channel {
	case ChannelSMS:
		return d.NotifySMS(ctx, m.Kind, m.Payload)
	case ChannelEmail:
		return d.NotifyEmail(ctx, m.Kind, m.Payload)
	default:
		return fmt.Errorf("unknown notification channel %q", m.Channel)
	}
}
