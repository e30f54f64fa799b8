package api

import (
	"context"

	"github.com/Alexander-D-Karpov/sleeves/pkg/types"
)

func (c *Client) GetInventory(ctx context.Context) ([]types.OwnedSong, error) {
	items, gerr := Decode(c.Call(ctx, Request{Op: OpInventory}), ValidInventory)
	if gerr != nil {
		return nil, gerr
	}
	return items, nil
}

func (c *Client) GetSleeves(ctx context.Context) ([]types.Sleeve, error) {
	sleeves, gerr := Decode(c.Call(ctx, Request{Op: OpSleeves}), ValidSleeves)
	if gerr != nil {
		return nil, gerr
	}
	return sleeves, nil
}

func (c *Client) OpenSleeve(ctx context.Context, sleeveID string) (*types.OwnedSong, error) {
	owned, gerr := Decode(c.Call(ctx, Request{Op: OpOpenSleeve, SleeveID: sleeveID}), ValidOwnedSong)
	if gerr != nil {
		return nil, gerr
	}
	return &owned, nil
}
