package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"time-release-helper/internal/config"
	"time-release-helper/internal/estimator"
	"time-release-helper/internal/logger"
	"time-release-helper/internal/metrics"
	"time-release-helper/internal/rpc"
)

// app carries configuration and global flags shared by commands
type app struct {
	cfg         *config.Config
	networkName string
	endpoint    string
}

func (a *app) network() (config.NetworkConfig, error) {
	return a.cfg.NetworkByName(a.networkName)
}

// wsEndpoint resolves the node endpoint: flag, then RPC_ENDPOINT, then the network default
func (a *app) wsEndpoint(n config.NetworkConfig) string {
	switch {
	case a.endpoint != "":
		return rpc.WSURL(a.endpoint)
	case a.cfg.RPC.Endpoint != "":
		return rpc.WSURL(a.cfg.RPC.Endpoint)
	default:
		return n.Endpoint
	}
}

func (a *app) rpcClient(endpoint string) *rpc.Client {
	return rpc.NewClient(
		endpoint,
		a.cfg.RPC.ApiKey,
		a.cfg.RPC.RateLimit,
		a.cfg.MaxRetries,
		a.cfg.RetryDelay,
		a.cfg.HTTP.Timeout,
		logger.Component("rpc"),
	)
}

// connect opens a chain context and checks the node serves the selected network
func (a *app) connect(ctx context.Context, n config.NetworkConfig) (*rpc.ChainContext, *rpc.Client, error) {
	ws := a.wsEndpoint(n)
	client := a.rpcClient(rpc.HTTPURL(ws))

	cc, err := rpc.Connect(ctx, ws, client)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", ws, err)
	}
	if cc.Prefix != n.Prefix {
		client.Close()
		if served, err := a.cfg.NetworkByPrefix(cc.Prefix); err == nil {
			return nil, nil, fmt.Errorf("node at %s serves %s (prefix %d), not %s", ws, served.Name, cc.Prefix, n.Name)
		}
		return nil, nil, fmt.Errorf("node at %s reports prefix %d, %s uses %d", ws, cc.Prefix, n.Name, n.Prefix)
	}

	logger.GetLogger().Info().
		Str("endpoint", ws).
		Uint16("prefix", cc.Prefix).
		Str("unit", cc.Unit).
		Uint8("decimals", cc.Decimals).
		Msg("Connected to chain")
	return cc, client, nil
}

// registry returns the estimator registry, refreshed from the node when live is set
func (a *app) registry(ctx context.Context, n config.NetworkConfig, live bool) (*estimator.Registry, error) {
	reg := estimator.NewRegistry(a.cfg.References())
	if !live {
		return reg, nil
	}

	cc, client, err := a.connect(ctx, n)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	ref, err := cc.LiveReference(ctx, n.ChainReference().BlockInterval)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh chain reference: %w", err)
	}
	if err := reg.Set(n.Prefix, ref); err != nil {
		return nil, err
	}

	logger.GetLogger().Info().
		Uint64("block", ref.BlockHeight).
		Time("timestamp", ref.Timestamp).
		Msg("Using live chain reference")
	return reg, nil
}

// resolveDate parses YYYY-MM-DD and estimates its unlock block
func (a *app) resolveDate(reg *estimator.Registry, n config.NetworkConfig, date string) (uint64, error) {
	d, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", date, err)
	}

	target, err := reg.Resolve(n.Prefix, d.Year(), d.Month(), d.Day(), time.Now())
	metrics.RecordEstimate(strconv.Itoa(int(n.Prefix)), err)
	if err != nil {
		return 0, err
	}
	return *target.ResolvedBlock, nil
}
