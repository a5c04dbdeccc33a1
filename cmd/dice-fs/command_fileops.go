package main

import (
	"context"

	"github.com/apex/log"
)

var (
	mkdir     = app.Command("mkdir", "Create a directory and all missing parents.")
	mkdirPath = mkdir.Arg("path", "Directory to create.").Required().String()

	rm          = app.Command("rm", "Remove a file or directory.")
	rmPath      = rm.Arg("path", "Path to remove.").Required().String()
	rmRecursive = rm.Flag("recursive", "Remove directories and their contents.").Short('r').Default("false").Bool()

	cp          = app.Command("cp", "Copy a file or directory. Source and destination must belong to the same storage system.")
	cpSrc       = cp.Arg("src", "Source path.").Required().String()
	cpDest      = cp.Arg("dest", "Destination path.").Required().String()
	cpRecursive = cp.Flag("recursive", "Copy directories recursively.").Short('r').Default("false").Bool()

	mv     = app.Command("mv", "Move a file or directory. Source and destination must belong to the same storage system.")
	mvSrc  = mv.Arg("src", "Source path.").Required().String()
	mvDest = mv.Arg("dest", "Destination path.").Required().String()
)

func performMkdir(ctx context.Context) error {
	return performFileOp(log.Fields{"path": *mkdirPath}, "creating directory", func(client fileOpClient) error {
		return client.Mkdir(ctx, *mkdirPath)
	})
}

func performRm(ctx context.Context) error {
	return performFileOp(log.Fields{"path": *rmPath}, "removing", func(client fileOpClient) error {
		if *rmRecursive {
			return client.RemoveRecursive(ctx, *rmPath)
		}
		return client.Remove(ctx, *rmPath)
	})
}

func performCp(ctx context.Context) error {
	return performFileOp(log.Fields{"src": *cpSrc, "dest": *cpDest}, "copying", func(client fileOpClient) error {
		if *cpRecursive {
			return client.CopyRecursive(ctx, *cpSrc, *cpDest)
		}
		return client.Copy(ctx, *cpSrc, *cpDest)
	})
}

func performMv(ctx context.Context) error {
	return performFileOp(log.Fields{"src": *mvSrc, "dest": *mvDest}, "moving", func(client fileOpClient) error {
		return client.Move(ctx, *mvSrc, *mvDest)
	})
}

type fileOpClient interface {
	Mkdir(ctx context.Context, path string) error
	Remove(ctx context.Context, path string) error
	RemoveRecursive(ctx context.Context, path string) error
	Copy(ctx context.Context, src, dest string) error
	CopyRecursive(ctx context.Context, src, dest string) error
	Move(ctx context.Context, src, dest string) error
}

func performFileOp(fields log.Fields, action string, op func(fileOpClient) error) error {
	logger := prepareAppLogger()

	client, err := prepareClient(logger)
	if err != nil {
		return err
	}

	err = op(client)
	if err != nil {
		logger.WithError(err).WithFields(fields).Errorf("Encountered error while %s", action)
		return err
	}

	logger.WithFields(fields).Infof("Finished %s", action)

	return nil
}
