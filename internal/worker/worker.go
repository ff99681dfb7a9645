package worker

import (
	"context"

	"github.com/zolani/khusela/internal/helper"
	"github.com/zolani/khusela/internal/repository"
	"github.com/zolani/khusela/internal/smtp"
	"github.com/zolani/khusela/internal/stream"
)

type Worker struct {
	KafkaStream *stream.KafkaStream
	DB          repository.Database
	Ctx         context.Context
	Helper      *helper.HelperRepository
	Mailer      smtp.MailerInterface
}

const (
	// policyIssuanceGroupID is used for workers that bring a paid-up policy
	// live once payment setup has been confirmed.
	policyIssuanceGroupID = "policy-issuance-group"
)

// Our workers typically need access to the database and the kafka event
// stream; worker-specific dependencies can be passed as arguments.
func New(wk *Worker) *Worker {
	return &Worker{
		KafkaStream: wk.KafkaStream,
		DB:          wk.DB,
		Ctx:         wk.Ctx,
		Helper:      wk.Helper,
		Mailer:      wk.Mailer,
	}
}
