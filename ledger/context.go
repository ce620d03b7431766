// Copyright (c) 2024 CrowdFund Project
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package ledger

import (
	"context"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
)

type actionCtxKey struct{}

// ActionCtx provides the authenticated identity of the current caller. The
// execution environment is expected to attach it to the context of every
// mutating operation.
type ActionCtx struct {
	// Caller is the authenticated identity of the current caller
	Caller address.Address
}

// WithActionCtx adds ActionCtx into context.
func WithActionCtx(ctx context.Context, ac ActionCtx) context.Context {
	return context.WithValue(ctx, actionCtxKey{}, ac)
}

// GetActionCtx gets ActionCtx
func GetActionCtx(ctx context.Context) (ActionCtx, bool) {
	ac, ok := ctx.Value(actionCtxKey{}).(ActionCtx)
	return ac, ok
}

// MustGetActionCtx must get ActionCtx. If context doesn't exist, it panics.
func MustGetActionCtx(ctx context.Context) ActionCtx {
	ac, ok := GetActionCtx(ctx)
	if !ok {
		panic("MustGetActionCtx: action context is not set")
	}
	return ac
}

func caller(ctx context.Context) (address.Address, error) {
	ac, ok := GetActionCtx(ctx)
	if !ok || ac.Caller == nil {
		return nil, errors.Wrap(ErrAuthorization, "no caller identity in context")
	}
	return ac.Caller, nil
}
