package asyncsnmp

// Copyright 2012-2016 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

import "context"

// WalkFunc is called once per varbind a walk yields. Returning an error
// stops the walk and the error is returned from Walk/BulkWalk.
type WalkFunc func(VarBind) error

// Walk iterates the subtree rooted at root using repeated GetNext requests,
// calling fn for each varbind still within the subtree.
//
// Grounded on original_source/src/client/walk.rs's termination rules: stop
// on EndOfMibView, stop when the returned OID leaves the requested
// subtree, stop (as an error) if the OID fails to strictly increase (a
// malfunctioning or hostile agent could otherwise loop forever), else
// yield the varbind and continue from its OID.
func (c *Client) Walk(ctx context.Context, root OID, fn WalkFunc) error {
	current := root
	for {
		resp, err := c.GetNext(ctx, []OID{current})
		if err != nil {
			return err
		}
		if len(resp) != 1 {
			return newDecodeError(0, DecodeMissingPdu, "getnext returned an unexpected number of varbinds")
		}
		vb := resp[0]

		if vb.Value.Kind == ValueEndOfMibView {
			return nil
		}
		if !vb.OID.StartsWith(root) {
			return nil
		}
		if vb.OID.Compare(current) <= 0 {
			return &Error{Kind: KindNonIncreasingOID, Previous: current, Current: vb.OID}
		}
		if err := fn(vb); err != nil {
			return err
		}
		current = vb.OID
	}
}

// BulkWalk is Walk implemented with GetBulk instead of GetNext, fetching
// maxRepetitions varbinds per round trip instead of one.
func (c *Client) BulkWalk(ctx context.Context, root OID, maxRepetitions int32, fn WalkFunc) error {
	current := root
	for {
		resp, err := c.GetBulk(ctx, 0, maxRepetitions, []OID{current})
		if err != nil {
			return err
		}
		if len(resp) == 0 {
			return nil
		}
		for _, vb := range resp {
			if vb.Value.Kind == ValueEndOfMibView {
				return nil
			}
			if !vb.OID.StartsWith(root) {
				return nil
			}
			if vb.OID.Compare(current) <= 0 {
				return &Error{Kind: KindNonIncreasingOID, Previous: current, Current: vb.OID}
			}
			if err := fn(vb); err != nil {
				return err
			}
			current = vb.OID
		}
	}
}
