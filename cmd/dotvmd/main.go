// Package main is the dotvmd executable.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"flag"
	"os"
	"runtime"
	"runtime/pprof"
	"strconv"

	"github.com/golang/glog"
)

var (
	cpuProfile = flag.String("cpuprofile", "", "write cpu profile to `file`")
	memProfile = flag.String("memprofile", "", "write memory profile to `file`")
)

// set by ldflags at build time.
var (
	version   string
	buildTime string
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()
	if s := *cpuProfile; s != "" {
		*cpuProfile = s + "." + strconv.Itoa(os.Getpid())
		f, err := os.Create(*cpuProfile)
		if err != nil {
			glog.Exitf("couldn't create CPU profile: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			glog.Exitf("couldn't start CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}

	exitCode := Run(version, buildTime)

	if s := *memProfile; s != "" {
		*memProfile = s + "." + strconv.Itoa(os.Getpid())
		f, err := os.Create(*memProfile)
		if err != nil {
			glog.Exitf("couldn't create memory profile: %v", err)
		}
		defer f.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			glog.Exitf("couldn't write memory profile: %v", err)
		}
	}

	return exitCode
}
