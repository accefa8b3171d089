package modbustcp

import (
	"context"
	"testing"
	"time"

	"github.com/fieldbuslabs/modbus"
)

func TestIntegrationReadHoldingRegisters(t *testing.T) {
	const addr = "127.0.0.1:15220"

	ctx := modbus.NewStorage(0, 0, 0, 10)
	ctx.SetHolding(0, 111)
	ctx.SetHolding(1, 222)

	sv, err := NewServer(ServerConfig{Address: addr, UnitID: 1, ConnectTimeout: 5 * time.Second, Context: ctx})
	if err != nil {
		t.Fatal(err)
	}
	accepted := make(chan error, 1)
	go func() {
		accepted <- sv.Accept(context.Background())
	}()

	var cli *Client
	for i := 0; i < 100; i++ {
		cli, err = DialClient(ClientConfig{Address: addr, UnitID: 1, DialTimeout: 50 * time.Millisecond, Timeout: 2 * time.Second})
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("DialClient: %v", err)
	}
	defer cli.Close()
	if err := <-accepted; err != nil {
		t.Fatalf("Accept: %v", err)
	}

	go sv.HandleNext()
	got, err := cli.ReadHoldingRegisters(0, 2)
	if err != nil {
		t.Fatalf("ReadHoldingRegisters: %v", err)
	}
	if len(got) != 2 || got[0] != 111 || got[1] != 222 {
		t.Fatalf("got %v, want [111 222]", got)
	}
}

func TestIntegrationWriteSingleRegister(t *testing.T) {
	const addr = "127.0.0.1:15221"

	ctx := modbus.NewStorage(0, 0, 0, 10)

	sv, err := NewServer(ServerConfig{Address: addr, UnitID: 2, ConnectTimeout: 5 * time.Second, Context: ctx})
	if err != nil {
		t.Fatal(err)
	}
	accepted := make(chan error, 1)
	go func() {
		accepted <- sv.Accept(context.Background())
	}()

	var cli *Client
	for i := 0; i < 100; i++ {
		cli, err = DialClient(ClientConfig{Address: addr, UnitID: 2, DialTimeout: 50 * time.Millisecond, Timeout: 2 * time.Second})
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("DialClient: %v", err)
	}
	defer cli.Close()
	if err := <-accepted; err != nil {
		t.Fatalf("Accept: %v", err)
	}

	go sv.HandleNext()
	if err := cli.WriteSingleRegister(4, 999); err != nil {
		t.Fatalf("WriteSingleRegister: %v", err)
	}
	v, err := ctx.Holding(4)
	if err != nil || v != 999 {
		t.Fatalf("Holding(4) = %v, %v", v, err)
	}
}
