package ledger

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
)

// Init probes the node and makes sure both streams exist and are subscribed.
// Any failure leaves the service offline; the error is informational and the
// caller keeps running.
func (s *service) Init(ctx context.Context) error {
	if s.rpc == nil {
		s.online.Store(false)
		s.logg.Warn(ctx, "ledger disabled, running in offline mode")
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.rpc.GetInfo(callCtx); err != nil {
		return s.goOffline(ctx, "could not reach ledger node", err)
	}
	existing, err := s.rpc.ListStreams(callCtx)
	if err != nil {
		return s.goOffline(ctx, "could not list ledger streams", err)
	}

	subscribed := make(map[string]bool, len(existing))
	for _, st := range existing {
		subscribed[st.Name] = st.Subscribed
	}

	var errs error
	for _, name := range []string{s.streams.Products, s.streams.Orders} {
		errs = multierr.Append(errs, s.ensureStream(callCtx, name, subscribed))
	}
	if errs != nil {
		return s.goOffline(ctx, "could not provision ledger streams", errs)
	}

	s.online.Store(true)
	s.logg.Info(ctx, "ledger streams ready")
	return nil
}

func (s *service) ensureStream(ctx context.Context, name string, subscribed map[string]bool) error {
	isSubscribed, exists := subscribed[name]
	if !exists {
		if _, err := s.rpc.CreateStream(ctx, name, true); err != nil {
			return fmt.Errorf("create stream %s: %w", name, err)
		}
		s.logg.Info(s.logg.WithField(ctx, "stream", name), "ledger stream created")
	}
	if !isSubscribed {
		if err := s.rpc.Subscribe(ctx, name); err != nil {
			return fmt.Errorf("subscribe stream %s: %w", name, err)
		}
	}
	return nil
}

func (s *service) goOffline(ctx context.Context, msg string, err error) error {
	s.online.Store(false)
	s.logg.WarnErr(ctx, msg+", running in offline mode", err)
	return fmt.Errorf("%s: %w", msg, err)
}
