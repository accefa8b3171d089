package modbusrtu

import (
	"io"
	"testing"
	"time"

	"github.com/fieldbuslabs/modbus"
)

func TestIntegration(t *testing.T) {
	const (
		numTests  = 20
		devAddr   = 1
		startAddr = 3
	)
	ctx := modbus.NewStorageSmall()
	if err := ctx.SetHolding(startAddr, 1); err != nil {
		t.Fatal(err)
	}

	r1, w1 := io.Pipe()
	r2, w2 := io.Pipe()
	r1w2 := rw{label: "Client Pipe", Reader: r1, Writer: w2, t: t}
	r2w1 := rw{label: "Server Pipe", Reader: r2, Writer: w1, t: t}

	cli := NewClient(r1w2, devAddr, 2*time.Second)
	srv := NewServer(r2w1, ServerConfig{Address: devAddr, Context: ctx})

	for test := 0; test < numTests; test++ {
		served := make(chan error, 1)
		go func() { served <- srv.HandleNext() }()
		got, err := cli.ReadHoldingRegisters(devAddr, startAddr, 1)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0] != 1 {
			t.Fatalf("expected [1], got %v", got)
		}
		if err := <-served; err != nil {
			t.Fatalf("HandleNext: %v", err)
		}
	}
}

func TestIntegrationWriteSingleCoil(t *testing.T) {
	const devAddr = 7
	ctx := modbus.NewStorageSmall()

	r1, w1 := io.Pipe()
	r2, w2 := io.Pipe()
	cli := NewClient(rw{label: "client", Reader: r1, Writer: w2, t: t}, devAddr, 2*time.Second)
	srv := NewServer(rw{label: "server", Reader: r2, Writer: w1, t: t}, ServerConfig{Address: devAddr, Context: ctx})

	served := make(chan error, 1)
	go func() { served <- srv.HandleNext() }()
	if err := cli.WriteSingleCoil(devAddr, 5, true); err != nil {
		t.Fatal(err)
	}
	if err := <-served; err != nil {
		t.Fatalf("HandleNext: %v", err)
	}
	got, err := ctx.Coil(5)
	if err != nil {
		t.Fatal(err)
	}
	if !got {
		t.Fatal("expected coil 5 to be set")
	}
}

type rw struct {
	label string
	io.Reader
	io.Writer
	t testing.TB
}

func (r rw) Read(p []byte) (n int, err error) {
	r.t.Helper()
	n, err = r.Reader.Read(p)
	if err != nil {
		r.t.Logf("%v: read %v bytes ERR=%q", r.label, n, err)
	} else {
		r.t.Logf("%v: read %v bytes (%q)", r.label, n, p[:n])
	}
	return n, err
}

func (r rw) Write(p []byte) (n int, err error) {
	r.t.Helper()
	n, err = r.Writer.Write(p)
	if err != nil {
		r.t.Logf("%v: wrote %v bytes ERR=%q", r.label, n, err)
	} else {
		r.t.Logf("%v: wrote %v bytes", r.label, n)
	}
	return n, err
}
