package hcloud

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/caravel-sh/caravel/internal/util/retry"
)

// deleteOperation encapsulates idempotent deletion of an hcloud resource:
// succeed when the resource is already gone, retry while it is locked by
// a running action.
type deleteOperation[T any] struct {
	Name         string
	ResourceType string

	Get    func(ctx context.Context, name string) (T, *hcloud.Response, error)
	Delete func(ctx context.Context, resource T) (*hcloud.Response, error)
}

func (op *deleteOperation[T]) Execute(ctx context.Context, client *RealClient) error {
	ctx, cancel := context.WithTimeout(ctx, client.timeouts.Delete)
	defer cancel()

	return retry.Do(ctx, func() error {
		resource, _, err := op.Get(ctx, op.Name)
		if err != nil {
			return retry.Fatal(fmt.Errorf("failed to get %s: %w", op.ResourceType, err))
		}

		if reflect.ValueOf(resource).IsNil() {
			return nil
		}

		_, err = op.Delete(ctx, resource)
		if err != nil {
			if isResourceLocked(err) {
				return err
			}
			return retry.Fatal(err)
		}
		return nil
	},
		retry.WithMaxRetries(client.timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(client.timeouts.RetryInitialDelay))
}

// ensureOperation encapsulates get-or-create logic for an hcloud
// resource, with an optional validation of a pre-existing resource.
type ensureOperation[T any, CreateOpts any] struct {
	Name         string
	ResourceType string

	Get              func(ctx context.Context, name string) (T, *hcloud.Response, error)
	Create           func(ctx context.Context, opts CreateOpts) (T, *hcloud.Response, error)
	Validate         func(resource T) error
	CreateOptsMapper func() CreateOpts
}

func (op *ensureOperation[T, CreateOpts]) Execute(ctx context.Context, client *RealClient) (T, error) {
	var zero T

	existing, _, err := op.Get(ctx, op.Name)
	if err != nil {
		return zero, fmt.Errorf("failed to get %s %s: %w", op.ResourceType, op.Name, err)
	}
	if !reflect.ValueOf(existing).IsNil() {
		if op.Validate != nil {
			if err := op.Validate(existing); err != nil {
				return zero, err
			}
		}
		return existing, nil
	}

	var created T
	err = retry.Do(ctx, func() error {
		res, _, err := op.Create(ctx, op.CreateOptsMapper())
		if err != nil {
			if isInvalidParameter(err) {
				return retry.Fatal(err)
			}
			return err
		}
		created = res
		return nil
	},
		retry.WithMaxRetries(client.timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(client.timeouts.RetryInitialDelay))
	if err != nil {
		return zero, fmt.Errorf("failed to create %s %s: %w", op.ResourceType, op.Name, err)
	}
	return created, nil
}
