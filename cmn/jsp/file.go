// Package jsp (JSON persistence) provides the atomic write-to-temp-then-rename
// discipline shared by the write-ahead log and the checkpoint manager: never
// leave a half-written file at the final path.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package jsp

import (
	"os"

	"github.com/golang/glog"

	"github.com/dotlanth/dotvm/cmn"
)

// Save atomically writes b to filepath: write to a sibling temp file, fsync,
// close, then rename over the final path. On any failure the temp file is
// removed and filepath is left untouched.
func Save(filepath string, b []byte) (err error) {
	var file *os.File
	tmp := filepath + ".tmp." + cmn.GenTie()
	if file, err = cmn.CreateFile(tmp); err != nil {
		return err
	}
	defer func() {
		if err == nil {
			return
		}
		if nestedErr := cmn.RemoveFile(tmp); nestedErr != nil {
			glog.Errorf("nested (%v): failed to remove %s: %v", err, tmp, nestedErr)
		}
	}()
	if _, err = file.Write(b); err != nil {
		glog.Errorf("failed to write %s: %v", filepath, err)
		file.Close()
		return err
	}
	if err = cmn.FlushClose(file); err != nil {
		glog.Errorf("failed to flush and close %s: %v", tmp, err)
		return err
	}
	err = os.Rename(tmp, filepath)
	return err
}

// Load reads the full contents of filepath.
func Load(filepath string) ([]byte, error) {
	return os.ReadFile(filepath)
}
