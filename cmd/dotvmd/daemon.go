// Package main is the dotvmd executable.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/golang/glog"

	"github.com/dotlanth/dotvm/bridge"
	"github.com/dotlanth/dotvm/checkpoint"
	"github.com/dotlanth/dotvm/cmn"
	"github.com/dotlanth/dotvm/crypto"
	"github.com/dotlanth/dotvm/document"
	"github.com/dotlanth/dotvm/kv"
	"github.com/dotlanth/dotvm/planner"
	"github.com/dotlanth/dotvm/scheduler"
	"github.com/dotlanth/dotvm/wal"
)

// cliFlags gathers every command-line knob the daemon accepts in one
// place, registered in init().
type cliFlags struct {
	dataDir           string
	configPath        string
	workerThreads     int
	maxCheckpoints    int
	autoCheckpointMin int
	allowedOps        string
	blockedOps        string
}

type daemonCtx struct {
	cli cliFlags
}

var daemon = daemonCtx{}

func init() {
	flag.StringVar(&daemon.cli.dataDir, "data_dir", "", "directory for the KV store, WAL, and checkpoints (empty: in-memory, non-durable)")
	flag.StringVar(&daemon.cli.configPath, "config", "", "path to a JSON config file (accepted but not read: build uses the other flags and package defaults only)")
	flag.IntVar(&daemon.cli.workerThreads, "worker_threads", 4, "scheduler worker pool size (must be >= 2, the bridge blocks one per in-flight host call)")
	flag.IntVar(&daemon.cli.maxCheckpoints, "max_checkpoints", 10, "checkpoint retention count")
	flag.IntVar(&daemon.cli.autoCheckpointMin, "auto_checkpoint_minutes", 5, "minutes between automatic checkpoints, 0 disables")
	flag.StringVar(&daemon.cli.allowedOps, "allowed_operations", "", "comma-separated host-function allow list (empty: allow all not explicitly blocked)")
	flag.StringVar(&daemon.cli.blockedOps, "blocked_operations", "", "comma-separated host-function block list")
}

// components holds every long-lived piece the daemon wires together, so
// Shutdown can release them in reverse dependency order.
type components struct {
	kvStore       kv.Store
	walLog        wal.Log
	ckptMgr       *checkpoint.Manager
	docStore      *document.Store
	sched         *scheduler.Scheduler
	workerThreads int
	bridge        *bridge.Bridge
	gateway       *Gateway
}

// build constructs every component from cli, bottom-up:
// kv -> wal -> checkpoint -> document -> scheduler -> bridge (with
// document/crypto/state executors) -> gateway.
func build(cli cliFlags) (*components, error) {
	var (
		store kv.Store
		log   wal.Log
		err   error
	)
	if cli.dataDir == "" {
		store = kv.NewMem()
	} else {
		if err := os.MkdirAll(cli.dataDir, 0o755); err != nil {
			return nil, cmn.NewError(cmn.KindUnavailable, "dotvmd.build", "cannot create data dir", err)
		}
		store, err = kv.OpenBunt(filepath.Join(cli.dataDir, "dotvm.db"))
		if err != nil {
			return nil, err
		}
		log, err = wal.OpenFileLog(filepath.Join(cli.dataDir, "dotvm.wal"))
		if err != nil {
			return nil, err
		}
	}

	ckptDir := cli.dataDir
	if ckptDir == "" {
		ckptDir, err = os.MkdirTemp("", "dotvmd-checkpoints-*")
		if err != nil {
			return nil, cmn.NewError(cmn.KindUnavailable, "dotvmd.build", "cannot create temp checkpoint dir", err)
		}
	} else {
		ckptDir = filepath.Join(cli.dataDir, "checkpoints")
	}
	ckptCfg := checkpoint.DefaultConfig()
	ckptCfg.MaxCheckpoints = cli.maxCheckpoints
	ckptCfg.AutoInterval = time.Duration(cli.autoCheckpointMin) * time.Minute
	ckptMgr, err := checkpoint.New(ckptDir, store, log, ckptCfg)
	if err != nil {
		return nil, err
	}

	docStore := document.New(store, log).WithCollectionLocking(true)

	sched := scheduler.New()

	security := bridge.NewSecurityContext(splitNonEmpty(cli.allowedOps), splitNonEmpty(cli.blockedOps))
	br := bridge.New(sched, security)

	qp := planner.New()
	dbExec := newDocumentDatabaseExecutor(docStore, qp)
	stateExec := newKVStateExecutor(store, log, ckptMgr)
	br.SetDatabaseExecutor(dbExec)
	br.SetCryptoExecutor(crypto.NewProvider())
	br.SetStateExecutor(stateExec)

	gw := NewGateway(dbExec, stateExec, ckptMgr, br)
	br.SetParallelExecutor(newDotParallelExecutor(gw.dots, br, sched))

	return &components{
		kvStore:       store,
		walLog:        log,
		ckptMgr:       ckptMgr,
		docStore:      docStore,
		sched:         sched,
		workerThreads: cli.workerThreads,
		bridge:        br,
		gateway:       gw,
	}, nil
}

func splitNonEmpty(csv string) []string {
	if csv == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(csv); i++ {
		if i == len(csv) || csv[i] == ',' {
			if i > start {
				out = append(out, csv[start:i])
			}
			start = i + 1
		}
	}
	return out
}

// shutdown releases every component in reverse build order.
func (c *components) shutdown() {
	if err := c.sched.Stop(); err != nil {
		glog.Errorf("dotvmd: scheduler stop failed: %v", err)
	}
	if c.walLog != nil {
		if err := c.walLog.Close(); err != nil {
			glog.Errorf("dotvmd: WAL close failed: %v", err)
		}
	}
	if err := c.kvStore.Close(); err != nil {
		glog.Errorf("dotvmd: KV store close failed: %v", err)
	}
}

// Run builds the daemon, starts the scheduler and auto-checkpoint
// ticker, and blocks until SIGINT/SIGTERM. Returns the process exit
// code.
func Run(version, buildTime string) int {
	defer glog.Flush()

	flag.Parse()
	if daemon.cli.workerThreads < 2 {
		glog.Exitf("worker_threads must be >= 2, the host-function bridge blocks one per in-flight call")
	}

	glog.Infof("dotvmd %s (build %s)", version, buildTime)

	comps, err := build(daemon.cli)
	if err != nil {
		glog.Errorf("dotvmd: startup failed: %v", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := comps.sched.Start(ctx, comps.workerThreads); err != nil {
		glog.Errorf("dotvmd: scheduler start failed: %v", err)
		return 1
	}

	stopTicker := make(chan struct{})
	if daemon.cli.autoCheckpointMin > 0 {
		go autoCheckpoint(comps.ckptMgr, time.Duration(daemon.cli.autoCheckpointMin)*time.Minute, stopTicker)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	glog.Infof("dotvmd: received %v, shutting down", sig)

	close(stopTicker)
	comps.shutdown()
	glog.Infoln("dotvmd: terminated OK")
	return 0
}

// autoCheckpoint periodically calls CreateCheckpoint until stop closes.
func autoCheckpoint(mgr *checkpoint.Manager, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := mgr.CreateCheckpoint(); err != nil {
				glog.Errorf("dotvmd: auto checkpoint failed: %v", err)
			}
		case <-stop:
			return
		}
	}
}
