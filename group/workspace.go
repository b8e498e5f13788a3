//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package group

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"trpc.group/trpc-go/trpc-agent-group/log"
)

const recordFile = "record.txt"

// createWorkspace makes <root>/<groupID> with a record file on first use and
// returns the group directory.
func createWorkspace(root, groupID string, logger log.Logger) (string, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("group: create workspace %s: %w", root, err)
	}
	dir := filepath.Join(root, groupID)
	if _, err := os.Stat(dir); err == nil {
		logger.Infof("group workspace directory %s exists", dir)
		return dir, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("group: create group workspace %s: %w", dir, err)
	}
	record := fmt.Sprintf("Workspace for group [%s] has been created at %s\n", groupID, time.Now().Format(time.RFC3339))
	if err := os.WriteFile(filepath.Join(dir, recordFile), []byte(record), 0o644); err != nil {
		return "", fmt.Errorf("group: write workspace record: %w", err)
	}
	logger.Infof("group workspace directory %s created", dir)
	return dir, nil
}
