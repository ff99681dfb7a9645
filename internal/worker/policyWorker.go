// A policy reaches this worker once the customer has confirmed payment
// setup. The policy row was created synchronously during underwriting in
// the pending_activation status; here it is marked active with cover
// starting on the first of the next month, and the customer is notified.
package worker

import (
	"encoding/json"
	"log"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/zolani/khusela/internal/funcs"
	"github.com/zolani/khusela/internal/handler"
	"github.com/zolani/khusela/internal/stream"
)

func (wk *Worker) PolicyIssuanceWorker() {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: policyIssuanceGroupID,
		Topic:   stream.PolicyActivatedTopic,
	})

	if err != nil {
		log.Fatalf("Error creating consumer: %v", err)
	}
	defer consumer.Close()

	for {
		select {
		case <-wk.Ctx.Done():
			log.Println("PolicyIssuanceWorker received cancellation signal, shutting down...")
			return
		default:
			event := consumer.Poll(100)
			switch e := event.(type) {
			case *kafka.Message:
				var activation *handler.PolicyActivatedEvent
				if err := json.Unmarshal(e.Value, &activation); err != nil {
					log.Printf("Error decoding policy activation event: %v", err)
					continue
				}

				if wk.activatePolicy(activation) {
					wk.sendPolicyActiveAlert(activation)
				}
			case kafka.Error:
				log.Printf("Error: %v\n", e)
			case *kafka.AssignedPartitions:
				consumer.Assign(e.Partitions)
			case *kafka.RevokedPartitions:
				consumer.Unassign()
			}
		}
	}
}

func (wk *Worker) activatePolicy(activation *handler.PolicyActivatedEvent) bool {
	err := wk.DB.Policy().Activate(activation.PolicyID, coverStartDate(time.Now()))
	if err != nil {
		log.Printf("Error activating policy: %v", err)
		return false
	}
	return true
}

func (wk *Worker) sendPolicyActiveAlert(activation *handler.PolicyActivatedEvent) {
	user, found, err := wk.DB.User().GetOne(activation.UserID)
	if err != nil || !found {
		log.Printf("Error finding policy holder for activation alert: %v", err)
		return
	}

	if !user.Email.Valid {
		return
	}

	wk.Helper.BackgroundTask(nil, func() error {
		emailData := wk.Helper.NewEmailData()
		emailData["Name"] = user.FirstName + " " + user.LastName
		emailData["PolicyID"] = activation.PolicyID
		emailData["Premium"] = funcs.FormatRand(activation.Premium)
		emailData["CoverStartDate"] = funcs.FormatDate(coverStartDate(time.Now()))

		err := wk.Mailer.Send(user.Email.String, emailData, "policy-active.tmpl")
		if err != nil {
			log.Printf("Error sending policy activation email: %v", err)
			return err
		}
		return nil
	})
}

// Premiums are collected on the first of the month, so cover starts there.
func coverStartDate(now time.Time) time.Time {
	firstOfNext := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return firstOfNext
}
