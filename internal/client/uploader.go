package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/existflow/irontime/internal/db"
	"github.com/existflow/irontime/internal/logger"
)

// Queue is the local store of activities waiting for upload
type Queue interface {
	Pending(ctx context.Context, limit int) ([]db.PendingActivity, error)
	RemovePending(ctx context.Context, ids []uint) error
	MarkFailed(ctx context.Context, ids []uint, cause error) error
}

// Uploader drains the offline queue to the server
type Uploader struct {
	client   *Client
	queue    Queue
	crypto   *Crypto
	batch    int
	interval time.Duration

	mu      sync.Mutex
	onFlush func(sent int)
}

// NewUploader creates an uploader sending up to 100 activities per call
func NewUploader(c *Client, q Queue) *Uploader {
	return &Uploader{
		client:   c,
		queue:    q,
		batch:    100,
		interval: 30 * time.Second,
	}
}

// WithCrypto encrypts notes before upload
func (u *Uploader) WithCrypto(c *Crypto) *Uploader {
	u.crypto = c
	return u
}

// SetOnFlush sets a callback run after a flush that sent something
func (u *Uploader) SetOnFlush(fn func(sent int)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.onFlush = fn
}

// Flush uploads queued activities and returns how many were stored.
// Entries the server rejects are kept with their error and skipped by
// later flushes. Each round removes or marks every entry it fetched.
func (u *Uploader) Flush(ctx context.Context) (int, error) {
	sent := 0
	for {
		pending, err := u.queue.Pending(ctx, u.batch)
		if err != nil {
			return sent, err
		}
		if len(pending) == 0 {
			return sent, nil
		}

		n, err := u.send(ctx, pending)
		sent += n
		if err != nil {
			return sent, err
		}
		if len(pending) < u.batch {
			return sent, nil
		}
	}
}

// send uploads one batch. A rejected batch is retried one entry at a time
// so one bad entry does not hold back the rest.
func (u *Uploader) send(ctx context.Context, pending []db.PendingActivity) (int, error) {
	reqs := make([]NewActivity, len(pending))
	ids := make([]uint, len(pending))
	for i, p := range pending {
		req, err := u.request(p)
		if err != nil {
			return 0, err
		}
		reqs[i] = req
		ids[i] = p.ID
	}

	_, err := u.client.LogActivities(ctx, reqs)
	if err == nil {
		return len(ids), u.queue.RemovePending(ctx, ids)
	}
	if !rejected(err) {
		return 0, err
	}
	if len(pending) == 1 {
		return 0, u.queue.MarkFailed(ctx, ids, err)
	}

	sent := 0
	for i, req := range reqs {
		if _, err := u.client.LogActivities(ctx, []NewActivity{req}); err != nil {
			if !rejected(err) {
				return sent, err
			}
			logger.Component("upload").Warn("Server rejected queued activity",
				logger.F("queue_id", ids[i]), logger.F("error", err))
			if err := u.queue.MarkFailed(ctx, ids[i:i+1], err); err != nil {
				return sent, err
			}
			continue
		}
		if err := u.queue.RemovePending(ctx, ids[i:i+1]); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

func (u *Uploader) request(p db.PendingActivity) (NewActivity, error) {
	req := FromActivity(p.Activity())
	if u.crypto != nil {
		notes, err := u.crypto.EncryptNotes(req.Notes)
		if err != nil {
			return NewActivity{}, err
		}
		req.Notes = notes
	}
	return req, nil
}

// rejected reports a client error the server will keep returning
func rejected(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status >= 400 && apiErr.Status < 500 &&
		apiErr.Status != http.StatusUnauthorized &&
		apiErr.Status != http.StatusTooManyRequests
}

// Run flushes periodically until ctx ends
func (u *Uploader) Run(ctx context.Context) {
	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !u.client.IsLoggedIn() {
				continue
			}
			sent, err := u.Flush(ctx)
			if err != nil {
				logger.Component("upload").Debug("Background upload failed", logger.F("error", err))
			}
			if sent > 0 {
				u.mu.Lock()
				fn := u.onFlush
				u.mu.Unlock()
				if fn != nil {
					fn(sent)
				}
			}
		}
	}
}
