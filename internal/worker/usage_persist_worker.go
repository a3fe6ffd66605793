package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"audioscribe/internal/model"
	"audioscribe/internal/repository"
)

type UsagePersistWorker struct {
	conn      *amqp.Connection
	repo      *repository.UsageEventRepository
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewUsagePersistWorker(conn *amqp.Connection, repo *repository.UsageEventRepository, queueName string) *UsagePersistWorker {
	return &UsagePersistWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
	}
}

func (w *UsagePersistWorker) Start(ctx context.Context) error {
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

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
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

				if err := w.handle(d.Body); err != nil {
					log.Printf("worker handle usage event failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

// handle decodes and persists one delivery. The consume loop acks on nil and
// nacks on error.
func (w *UsagePersistWorker) handle(body []byte) error {
	var event model.UsageEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("decode usage event failed: %w", err)
	}
	if err := w.repo.Create(&event); err != nil {
		return fmt.Errorf("persist usage event failed: %w", err)
	}
	return nil
}

func (w *UsagePersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
