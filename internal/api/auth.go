package api

import (
	"context"

	"github.com/Alexander-D-Karpov/sleeves/pkg/types"
)

// GetSession returns the server's current user, or nil when signed out.
func (c *Client) GetSession(ctx context.Context) (*types.AuthUser, error) {
	session, gerr := Decode(c.Call(ctx, Request{Op: OpSession}), ValidSession)
	if gerr != nil {
		return nil, gerr
	}
	return session.User, nil
}

// Login authenticates with username and password; the session cookie is kept in the client's jar.
func (c *Client) Login(ctx context.Context, creds types.Credentials) (*types.AuthUser, error) {
	return c.authenticate(ctx, OpLogin, creds)
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, creds types.Credentials) (*types.AuthUser, error) {
	return c.authenticate(ctx, OpRegister, creds)
}

func (c *Client) authenticate(ctx context.Context, op Operation, creds types.Credentials) (*types.AuthUser, error) {
	user, gerr := DecodeUser(c.Call(ctx, Request{Op: op, Body: creds}))
	if gerr != nil {
		return nil, gerr
	}
	return user, nil
}

// Logout ends the server session. The response body is ignored.
func (c *Client) Logout(ctx context.Context) error {
	res := c.Call(ctx, Request{Op: OpLogout})
	if !res.OK() {
		return res.Err
	}
	return nil
}

// DecodeUser reads a {"user": ...} envelope that must carry a user.
func DecodeUser(res Result) (*types.AuthUser, *GatewayError) {
	session, gerr := Decode(res, ValidSession)
	if gerr != nil {
		return nil, gerr
	}
	if session.User == nil {
		return nil, &GatewayError{Op: res.Op, Kind: KindMalformed, Status: res.Status, Detail: "response has no user"}
	}
	return session.User, nil
}
