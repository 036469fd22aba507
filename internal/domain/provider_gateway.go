package domain

import "context"

// ProviderGateway is the upstream provider boundary. Every call returns the
// raw response body; classifying it is the grammar's job, not the gateway's.
type ProviderGateway interface {
	GetNumber(ctx context.Context, server *ServerConfig, service *ServiceConfig) (string, error)
	GetMessage(ctx context.Context, server *ServerConfig, service *ServiceConfig, activationID string) (string, error)
	NextMessage(ctx context.Context, server *ServerConfig, service *ServiceConfig, activationID string) (string, error)
	Cancel(ctx context.Context, server *ServerConfig, service *ServiceConfig, activationID string) (string, error)
}
