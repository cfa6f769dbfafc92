package asyncsnmp

// Copyright 2012-2016 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

import (
	"bytes"
	"fmt"
	"log"
)

// Logger formats and emits log messages in a regular shape, grounded on
// HouzuoGuo-laitos's lalog.Logger - the only logging convention found
// anywhere in the retrieval pack (no third-party structured logger is
// imported by any example repo).
type Logger struct {
	// ComponentName identifies the subsystem, e.g. "Client", "Agent".
	ComponentName string
	// ComponentID clarifies which instance, e.g. a peer address.
	ComponentID string
}

// Format renders a message as "ComponentName[ID].functionName(actor): Error
// "err" - template", omitting any empty segment.
func (l *Logger) Format(functionName, actorName string, err error, template string, values ...interface{}) string {
	var msg bytes.Buffer
	if l.ComponentName != "" {
		msg.WriteString(l.ComponentName)
	}
	if l.ComponentID != "" {
		fmt.Fprintf(&msg, "[%s]", l.ComponentID)
	}
	if msg.Len() > 0 {
		msg.WriteRune('.')
	}
	if functionName != "" {
		msg.WriteString(functionName)
	}
	if actorName != "" {
		fmt.Fprintf(&msg, "(%s)", actorName)
	}
	if msg.Len() > 0 {
		msg.WriteString(": ")
	}
	if err != nil {
		fmt.Fprintf(&msg, "Error %q - ", err.Error())
	}
	fmt.Fprintf(&msg, template, values...)
	return msg.String()
}

// Debugf logs at debug level. Nil-receiver safe: a nil *Logger is a no-op,
// so callers needn't guard every call site with a nil check.
func (l *Logger) Debugf(functionName, actorName string, template string, values ...interface{}) {
	if l == nil {
		return
	}
	log.Print("DEBUG " + l.Format(functionName, actorName, nil, template, values...))
}

// Warnf logs at warning level.
func (l *Logger) Warnf(functionName, actorName string, err error, template string, values ...interface{}) {
	if l == nil {
		return
	}
	log.Print("WARN " + l.Format(functionName, actorName, err, template, values...))
}

// Errorf logs at error level.
func (l *Logger) Errorf(functionName, actorName string, err error, template string, values ...interface{}) {
	if l == nil {
		return
	}
	log.Print("ERROR " + l.Format(functionName, actorName, err, template, values...))
}
