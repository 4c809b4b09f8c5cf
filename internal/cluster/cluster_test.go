package cluster

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"solexplorer/internal/cache"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Cluster
		wantErr bool
	}{
		{in: "mainnet-beta", want: MainnetBeta},
		{in: "mainnet", want: MainnetBeta},
		{in: "testnet", want: Testnet},
		{in: "devnet", want: Devnet},
		{in: "custom", want: Custom},
		{in: "localnet", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownCluster) {
					t.Errorf("Parse(%q) error = %v, want ErrUnknownCluster", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("Parse(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestNewEndpoint(t *testing.T) {
	ep, err := NewEndpoint(Devnet, "ignored")
	if err != nil || ep.URL != DevnetURL || ep.IsCustom() {
		t.Errorf("NewEndpoint(Devnet) = %+v, %v", ep, err)
	}

	ep, err = NewEndpoint(Custom, "http://localhost:8899")
	if err != nil || ep.URL != "http://localhost:8899" || !ep.IsCustom() {
		t.Errorf("NewEndpoint(Custom) = %+v, %v", ep, err)
	}

	if _, err := NewEndpoint(Custom, ""); err == nil {
		t.Error("expected error for custom cluster without url")
	}
}

func TestProvider_SwitchNotifies(t *testing.T) {
	initial, _ := NewEndpoint(MainnetBeta, "")
	p := NewProvider(initial)

	var got []Endpoint
	cancel := p.OnChange(func(ep Endpoint) { got = append(got, ep) })

	if _, err := p.Switch(MainnetBeta, ""); err != nil {
		t.Fatalf("Switch: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("listener called for unchanged endpoint")
	}

	ep, err := p.Switch(Devnet, "")
	if err != nil {
		t.Fatalf("Switch: %v", err)
	}
	if p.Current() != ep || len(got) != 1 || got[0].URL != DevnetURL {
		t.Errorf("after switch: current = %+v, notified = %+v", p.Current(), got)
	}

	cancel()
	p.Switch(Testnet, "")
	if len(got) != 1 {
		t.Errorf("listener called after cancel")
	}
}

func TestProvider_SwitchInvalidKeepsCurrent(t *testing.T) {
	initial, _ := NewEndpoint(Testnet, "")
	p := NewProvider(initial)

	if _, err := p.Switch(Custom, ""); err == nil {
		t.Fatal("expected error")
	}
	if p.Current() != initial {
		t.Errorf("Current() = %+v, want %+v", p.Current(), initial)
	}
}

func TestBind_ClearsCacheOnSwitch(t *testing.T) {
	initial, _ := NewEndpoint(MainnetBeta, "")
	p := NewProvider(initial)

	c := cache.New[int](initial.URL, zerolog.Nop())
	defer c.Close()
	stop := Bind(p, c)

	c.Dispatch(cache.StartFetch[int]("ACC1", initial.URL))
	c.Dispatch(cache.Complete("ACC1", initial.URL, 7))

	p.Switch(Devnet, "")
	if c.Context() != DevnetURL || c.Len() != 0 {
		t.Errorf("after switch: context = %s, len = %d", c.Context(), c.Len())
	}

	stop()
	p.Switch(Testnet, "")
	if c.Context() != DevnetURL {
		t.Errorf("cache followed provider after stop: %s", c.Context())
	}
}

func TestProvider_ConcurrentSwitchKeepsCacheInStep(t *testing.T) {
	initial, _ := NewEndpoint(MainnetBeta, "")
	p := NewProvider(initial)

	c := cache.New[int](initial.URL, zerolog.Nop())
	defer c.Close()
	Bind(p, c)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	p.OnChange(func(ep Endpoint) {
		if ep.Cluster == Devnet {
			once.Do(func() { close(entered) })
			<-release
		}
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		p.Switch(Devnet, "")
	}()
	<-entered
	go func() {
		defer wg.Done()
		p.Switch(Testnet, "")
	}()

	inStep := make(chan bool, 1)
	go p.WithCurrent(func(ep Endpoint) {
		inStep <- ep.URL == c.Context()
	})

	select {
	case <-inStep:
		t.Fatal("WithCurrent ran while a switch was in progress")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	wg.Wait()

	if !<-inStep {
		t.Error("WithCurrent observed an endpoint the cache had not adopted")
	}

	ep := p.Current()
	if ep.URL != TestnetURL || c.Context() != TestnetURL {
		t.Fatalf("provider = %s, cache = %s; want both on testnet", ep.URL, c.Context())
	}

	c.Dispatch(cache.StartFetch[int]("ACC1", ep.URL))
	c.Dispatch(cache.Complete("ACC1", ep.URL, 1))
	if entry, ok := c.Read("ACC1"); !ok || entry.Status != cache.Fetched {
		t.Errorf("Read after fetch on current endpoint = %+v, %v", entry, ok)
	}
}
