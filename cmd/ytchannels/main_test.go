package main

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"nasfaqv2/brokerbot/ytlive/internal/livestatus"
	"nasfaqv2/brokerbot/ytlive/internal/ytdata"
)

func TestPrompt(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("  @eons \nQ\nlast line without newline"))
	var out bytes.Buffer

	got, ok := prompt(in, &out, "channel")
	assert.True(t, ok)
	assert.Equal(t, "@eons", got)
	assert.Equal(t, "channel: ", out.String())

	_, ok = prompt(in, &out, "name")
	assert.False(t, ok, "q quits")

	got, ok = prompt(in, &out, "name")
	assert.True(t, ok)
	assert.Equal(t, "last line without newline", got)

	_, ok = prompt(in, &out, "name")
	assert.False(t, ok, "EOF quits")
}

func TestDefaultName(t *testing.T) {
	assert.Equal(t, "PBS Eons", defaultName(&livestatus.Result{ChannelName: "PBS Eons", ChannelHandle: "@eons"}))
	assert.Equal(t, "eons", defaultName(&livestatus.Result{ChannelName: ytdata.UnknownChannelName, ChannelHandle: "@eons"}))
	assert.Equal(t, "", defaultName(&livestatus.Result{ChannelName: ytdata.UnknownChannelName}))
}
