package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"pdfmark/internal/logging"
	"pdfmark/internal/metrics"
	"pdfmark/internal/model"
	"pdfmark/internal/platform/rabbitmq"
)

// EventStore persists consumed upload events.
type EventStore interface {
	Create(ctx context.Context, event *model.UploadEvent) error
}

// UploadEventWorker consumes upload events and records them. An event that
// cannot be decoded or stored is dropped; analytics never block uploads.
type UploadEventWorker struct {
	conn      *amqp.Connection
	store     EventStore
	queueName string
	metrics   *metrics.Metrics
	log       logging.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewUploadEventWorker(conn *amqp.Connection, store EventStore, queueName string, m *metrics.Metrics, log logging.Logger) *UploadEventWorker {
	if log == nil {
		log = logging.DefaultLogger()
	}
	return &UploadEventWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
		metrics:   m,
		log:       log,
	}
}

func (w *UploadEventWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.Handle(workerCtx, d.Body); err != nil {
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	w.log.Infof("upload event worker consuming %s", w.queueName)
	return nil
}

// Handle decodes and stores one delivery body.
func (w *UploadEventWorker) Handle(ctx context.Context, body []byte) (err error) {
	defer func() {
		w.metrics.AddUploadEvent(err)
	}()

	var event model.UploadEvent
	if err := json.Unmarshal(body, &event); err != nil {
		w.log.Warnf("decode upload event failed: %v", err)
		return fmt.Errorf("decode upload event failed: %w", err)
	}
	event.ID = 0
	if err := w.store.Create(ctx, &event); err != nil {
		w.log.Errorf("persist upload event for %s failed: %v", event.DocumentID, err)
		return err
	}
	w.log.Debugw("upload.event.stored", "doc", event.DocumentID)
	return nil
}

func (w *UploadEventWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
