package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"

	dd "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/dispatch/domain"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/platform/validation"
)

// messageWriter is the subset of *kafka.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var newWriter = func(brokers []string, topic string) messageWriter {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
}

var publishCmd = &cobra.Command{
	Use:   "publish-order",
	Short: "Publish an order-created event to Kafka",
	Long: `Publish writes one order-created event, keyed by order number, to the
order events topic. The event is read from --file or built from flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("no kafka brokers configured (set kafka_brokers or NOTIFY_KAFKA_BROKERS)")
		}
		ev, err := eventFromFlags(cmd)
		if err != nil {
			return err
		}
		msg, err := orderMessage(ev)
		if err != nil {
			return err
		}

		w := newWriter(c.KafkaBrokers, c.Topic)
		defer w.Close()
		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()
		if err := w.WriteMessages(ctx, msg); err != nil {
			return fmt.Errorf("publish to %s: %w", c.Topic, err)
		}
		fmt.Printf("Published order %s to %s\n", ev.OrderNumber, c.Topic)
		return nil
	},
}

func init() {
	f := publishCmd.Flags()
	f.String("file", "", "read the event JSON from a file (- for stdin)")
	f.String("order-number", "", "order number")
	f.String("source", "b2c", "order source (b2b or b2c)")
	f.String("email", "", "customer email")
	f.String("name", "", "customer name")
	f.String("account-id", "", "business account id, for b2b orders")
	f.Float64("total", 0, "order total")
	f.String("currency", "SEK", "currency code")
}

func eventFromFlags(cmd *cobra.Command) (dd.OrderCreatedEvent, error) {
	var ev dd.OrderCreatedEvent
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		var (
			b   []byte
			err error
		)
		if file == "-" {
			b, err = io.ReadAll(os.Stdin)
		} else {
			b, err = os.ReadFile(file)
		}
		if err != nil {
			return ev, fmt.Errorf("read %s: %w", file, err)
		}
		if err := json.Unmarshal(b, &ev); err != nil {
			return ev, fmt.Errorf("decode event: %w", err)
		}
		return ev, nil
	}

	ev.OrderNumber, _ = cmd.Flags().GetString("order-number")
	ev.Source, _ = cmd.Flags().GetString("source")
	ev.AccountID, _ = cmd.Flags().GetString("account-id")
	ev.Total, _ = cmd.Flags().GetFloat64("total")
	ev.Currency, _ = cmd.Flags().GetString("currency")
	email, _ := cmd.Flags().GetString("email")
	name, _ := cmd.Flags().GetString("name")
	if email != "" || name != "" {
		ev.CustomerInfo = &dd.CustomerInfo{Email: email, Name: name}
	}
	return ev, nil
}

// orderMessage validates ev the way the consumer will and encodes it.
func orderMessage(ev dd.OrderCreatedEvent) (kafka.Message, error) {
	if err := validation.New().Validate(ev); err != nil {
		return kafka.Message{}, err
	}
	if ev.AccountID == "" && (ev.CustomerInfo == nil || ev.CustomerInfo.Email == "") {
		return kafka.Message{}, fmt.Errorf("event needs customerInfo.email or accountId")
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{Key: []byte(ev.OrderNumber), Value: b}, nil
}

