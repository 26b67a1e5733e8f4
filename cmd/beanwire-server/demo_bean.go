package main

import (
	"context"
	"fmt"

	"github.com/beanwire/beanwire/beanserver"
	"github.com/beanwire/beanwire/protocol"
)

// demoBeanDispatcher is a minimal beanserver.Dispatcher backing one
// stateless bean, "Echo", whose single method echoes its first
// argument back to the caller. It exists to give the serve subcommand
// something real to dispatch into; a production embedder supplies its
// own bean container here.
type demoBeanDispatcher struct {
	module protocol.ModuleID
}

func newDemoBeanDispatcher() *demoBeanDispatcher {
	return &demoBeanDispatcher{module: protocol.ModuleID{App: "demo", Module: "demo"}}
}

func (d *demoBeanDispatcher) Invoke(_ context.Context, req beanserver.InvokeRequest) (beanserver.InvokeResponse, error) {
	if req.Locator.ID.Bean != "Echo" || req.View != "Echo" || req.Method != "echo" {
		return beanserver.InvokeResponse{}, fmt.Errorf("demo dispatcher: no such bean/method %s/%s/%s", req.Locator.ID.Bean, req.View, req.Method)
	}
	var arg any
	if len(req.Args) > 0 {
		arg = req.Args[0]
	}
	return beanserver.InvokeResponse{Value: arg, Attachments: req.Attachments}, nil
}

func (d *demoBeanDispatcher) Open(_ context.Context, id protocol.BeanID, _ protocol.TransactionInfo) ([]byte, error) {
	return nil, nil
}

func (d *demoBeanDispatcher) Discover(context.Context) []protocol.ModuleID {
	return []protocol.ModuleID{d.module}
}
