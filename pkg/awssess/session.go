package awssess

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
)

// Options selects where the session points. Profile is only honoured for
// local runs; Endpoint overrides the service endpoint (e.g. DynamoDB Local).
type Options struct {
	Region   string
	Profile  string
	Endpoint string
}

func New(o Options) (*session.Session, error) {
	cfg := aws.Config{}
	if o.Region != "" {
		cfg.Region = aws.String(o.Region)
	}
	if o.Endpoint != "" {
		cfg.Endpoint = aws.String(o.Endpoint)
	}

	return session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
		Profile:           o.Profile,
		Config:            cfg,
	})
}
