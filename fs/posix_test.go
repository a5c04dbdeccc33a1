package fs_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/uob-dice/dice-lib/fs"
	"github.com/uob-dice/dice-lib/shell"
)

const listingOutput = `total 24
drwxr-xr-x  4 alice dice 4096 2021-02-26 13:04 .
drwxr-xr-x 12 root  root 4096 2021-01-02 09:30 ..
-rw-r--r--  1 alice dice 1536 2021-02-25 08:00 data.root
drwxr-x---  2 alice dice 4096 2021-02-20 17:45 my results
lrwxrwxrwx  1 alice dice   14 2021-02-26 13:04 latest -> my results/v2

`

// fakeCommands records the command lines run and answers from a map keyed by
// command line.
type fakeCommands struct {
	mu       sync.Mutex
	calls    []string
	outputs  map[string]string
	failures map[string]error
}

func newFakeCommands() *fakeCommands {
	return &fakeCommands{
		outputs:  map[string]string{},
		failures: map[string]error{},
	}
}

func (f *fakeCommands) executor() shell.Executor {
	return shell.ExecutorFunc(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		cmdLine := shell.CommandLine(name, args...)

		f.mu.Lock()
		f.calls = append(f.calls, cmdLine)
		f.mu.Unlock()

		if err, ok := f.failures[cmdLine]; ok {
			return nil, err
		}
		return []byte(f.outputs[cmdLine]), nil
	})
}

func (f *fakeCommands) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func notFound(cmdLine, stderr string) error {
	return &shell.CLIError{Command: cmdLine, ExitStatus: 1, Stderr: stderr}
}

var _ = Describe("PosixFileSystem", func() {
	var (
		commands *fakeCommands
		posix    *PosixFileSystem
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		commands = newFakeCommands()
		posix = NewPosixFileSystem(&PosixConfig{
			Executor: commands.executor(),
			Location: time.UTC,
		})
	})

	It("should handle the file protocol", func() {
		Ω(posix.Protocol()).Should(Equal(ProtocolFile))
	})

	Describe("SizeOf", func() {
		It("should convert du blocks to bytes", func() {
			commands.outputs["nice -n19 du -s /storage/x"] = "12\t/storage/x\n"

			record, err := posix.SizeOf(ctx, "file:///storage/x")
			Ω(err).ShouldNot(HaveOccurred())
			Ω(record.Path).Should(Equal("/storage/x"))
			Ω(record.Bytes).Should(BeEquivalentTo(12 * 1024))
			Ω(record.ScaledValue).Should(BeNumerically("~", 12.0))
			Ω(record.ScaledUnit).Should(Equal("kB"))

			Ω(commands.Calls()).Should(Equal([]string{"nice -n19 du -s /storage/x"}))
		})

		It("should strip unknown protocols", func() {
			commands.outputs["nice -n19 du -s /software/el9"] = "1048576\t/software/el9\n"

			record, err := posix.SizeOf(ctx, "nfs:///software/el9")
			Ω(err).ShouldNot(HaveOccurred())
			Ω(record.Bytes).Should(BeEquivalentTo(1 << 30))
			Ω(record.ScaledUnit).Should(Equal("GB"))
		})

		It("should map missing paths to ErrPathNotFound", func() {
			commands.failures["nice -n19 du -s /storage/missing"] = notFound(
				"nice -n19 du -s /storage/missing",
				"du: cannot access '/storage/missing': No such file or directory\n",
			)

			_, err := posix.SizeOf(ctx, "/storage/missing")
			Ω(errors.Is(err, ErrPathNotFound)).Should(BeTrue())

			var opErr *OpError
			Ω(errors.As(err, &opErr)).Should(BeTrue())
			Ω(opErr.Op).Should(Equal("size"))
			Ω(opErr.Path).Should(Equal("/storage/missing"))
		})

		It("should report unexpected output as ErrParse", func() {
			commands.outputs["nice -n19 du -s /storage/x"] = "garbage\n"

			_, err := posix.SizeOf(ctx, "/storage/x")
			Ω(errors.Is(err, ErrParse)).Should(BeTrue())
		})

		It("should report missing commands as ErrBackendUnavailable", func() {
			commands.failures["nice -n19 du -s /storage/x"] = &exec.Error{Name: "nice", Err: exec.ErrNotFound}

			_, err := posix.SizeOf(ctx, "/storage/x")
			Ω(errors.Is(err, ErrBackendUnavailable)).Should(BeTrue())
		})
	})

	Describe("SizeOfMany", func() {
		It("should tolerate failures of single paths", func() {
			commands.outputs["nice -n19 du -s /storage/a"] = "1\t/storage/a\n"
			commands.outputs["nice -n19 du -s /storage/c"] = "3\t/storage/c\n"
			commands.failures["nice -n19 du -s /storage/b"] = notFound(
				"nice -n19 du -s /storage/b",
				"du: cannot access '/storage/b': No such file or directory\n",
			)

			results := posix.SizeOfMany(ctx, []string{"/storage/a", "/storage/b", "/storage/c"})
			Ω(results).Should(HaveLen(3))

			Ω(results[0].Err).ShouldNot(HaveOccurred())
			Ω(results[0].Record.Bytes).Should(BeEquivalentTo(1024))
			Ω(errors.Is(results[1].Err, ErrPathNotFound)).Should(BeTrue())
			Ω(results[1].Record.Path).Should(Equal("/storage/b"))
			Ω(results[2].Err).ShouldNot(HaveOccurred())
			Ω(results[2].Record.Bytes).Should(BeEquivalentTo(3072))

			Ω(commands.Calls()).Should(ConsistOf(
				"nice -n19 du -s /storage/a",
				"nice -n19 du -s /storage/b",
				"nice -n19 du -s /storage/c",
			))
		})

		It("should report the same path form for failed and successful queries", func() {
			commands.outputs["nice -n19 du -s /storage/a"] = "1\t/storage/a\n"
			commands.failures["nice -n19 du -s /storage/b"] = notFound(
				"nice -n19 du -s /storage/b",
				"du: cannot access '/storage/b': No such file or directory\n",
			)
			commands.outputs["nice -n19 du -s /storage/c"] = "garbage\n"

			results := posix.SizeOfMany(ctx, []string{"file:///storage/a", "file:///storage/b", "file:///storage/c"})
			Ω(results).Should(HaveLen(3))

			Ω(results[0].Err).ShouldNot(HaveOccurred())
			Ω(results[0].Record.Path).Should(Equal("/storage/a"))
			Ω(errors.Is(results[1].Err, ErrPathNotFound)).Should(BeTrue())
			Ω(results[1].Record.Path).Should(Equal("/storage/b"))
			Ω(errors.Is(results[2].Err, ErrParse)).Should(BeTrue())
			Ω(results[2].Record.Path).Should(Equal("/storage/c"))
		})

		It("should not run commands once the context is done", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			results := posix.SizeOfMany(cancelled, []string{"/storage/a", "file:///storage/b"})
			Ω(results).Should(HaveLen(2))
			for _, result := range results {
				Ω(errors.Is(result.Err, context.Canceled)).Should(BeTrue())
			}
			Ω(results[1].Record.Path).Should(Equal("/storage/b"))
			Ω(commands.Calls()).Should(BeEmpty())
		})

		It("should return an empty slice for no paths", func() {
			Ω(posix.SizeOfMany(ctx, nil)).Should(BeEmpty())
		})
	})

	Describe("List", func() {
		It("should parse the ls output", func() {
			commands.outputs["ls -la --time-style=long-iso /storage/alice"] = listingOutput

			records, err := posix.List(ctx, "file:///storage/alice")
			Ω(err).ShouldNot(HaveOccurred())
			Ω(records).Should(HaveLen(3))

			Ω(records[0]).Should(Equal(ListingRecord{
				Permissions: "-rw-r--r--",
				Owner:       "alice",
				Group:       "dice",
				Size:        1536,
				ScaledSize:  1.5,
				ScaledUnit:  "kB",
				ModTime:     time.Date(2021, time.February, 25, 8, 0, 0, 0, time.UTC),
				Name:        "/storage/alice/data.root",
			}))

			Ω(records[1].Name).Should(Equal("/storage/alice/my results"))
			Ω(records[1].Permissions).Should(Equal("drwxr-x---"))

			Ω(records[2].Name).Should(Equal("/storage/alice/latest"))
			Ω(records[2].LinkTarget).Should(Equal("my results/v2"))
		})

		It("should reject lines with missing columns", func() {
			commands.outputs["ls -la --time-style=long-iso /storage/alice"] = "total 4\n-rw-r--r-- 1 alice dice 1536\n"

			_, err := posix.List(ctx, "/storage/alice")
			Ω(errors.Is(err, ErrParse)).Should(BeTrue())
		})

		It("should map missing directories to ErrPathNotFound", func() {
			commands.failures["ls -la --time-style=long-iso /storage/missing"] = notFound(
				"ls -la --time-style=long-iso /storage/missing",
				"ls: cannot access '/storage/missing': No such file or directory\n",
			)

			_, err := posix.List(ctx, "/storage/missing")
			Ω(errors.Is(err, ErrPathNotFound)).Should(BeTrue())
		})
	})

	Describe("file operations", func() {
		It("should run the expected commands", func() {
			Ω(posix.Mkdir(ctx, "file:///storage/a/b")).Should(Succeed())
			Ω(posix.Remove(ctx, "/storage/a/f")).Should(Succeed())
			Ω(posix.RemoveRecursive(ctx, "/storage/a")).Should(Succeed())
			Ω(posix.Copy(ctx, "/storage/f", "file:///scratch/f")).Should(Succeed())
			Ω(posix.CopyRecursive(ctx, "/storage/d", "/scratch/d")).Should(Succeed())
			Ω(posix.Move(ctx, "/scratch/my file", "/storage/my file")).Should(Succeed())

			Ω(commands.Calls()).Should(Equal([]string{
				"mkdir -p /storage/a/b",
				"rm -f /storage/a/f",
				"rm -fr /storage/a",
				"cp -p /storage/f /scratch/f",
				"cp -pr /storage/d /scratch/d",
				"mv '/scratch/my file' '/storage/my file'",
			}))
		})

		It("should report failed transfers as ErrTransfer", func() {
			commands.failures["cp -p /storage/f /scratch/f"] = &shell.CLIError{
				Command:    "cp -p /storage/f /scratch/f",
				ExitStatus: 1,
				Stderr:     "cp: cannot create regular file '/scratch/f': Permission denied\n",
			}

			err := posix.Copy(ctx, "/storage/f", "/scratch/f")
			Ω(errors.Is(err, ErrTransfer)).Should(BeTrue())

			var cliErr *shell.CLIError
			Ω(errors.As(err, &cliErr)).Should(BeTrue())
		})

		It("should report a missing source of a move as ErrTransfer", func() {
			commands.failures["mv /storage/f /scratch/f"] = notFound(
				"mv /storage/f /scratch/f",
				"mv: cannot stat '/storage/f': No such file or directory\n",
			)

			err := posix.Move(ctx, "/storage/f", "/scratch/f")
			Ω(errors.Is(err, ErrTransfer)).Should(BeTrue())
			Ω(errors.Is(err, ErrPathNotFound)).Should(BeTrue())

			var opErr *OpError
			Ω(errors.As(err, &opErr)).Should(BeTrue())
			Ω(opErr.Kind).Should(Equal(ErrTransfer))
			Ω(opErr.Op).Should(Equal("move"))
		})

		It("should report a missing source of a copy as ErrTransfer", func() {
			commands.failures["cp -p /storage/f /scratch/f"] = notFound(
				"cp -p /storage/f /scratch/f",
				"cp: cannot stat '/storage/f': No such file or directory\n",
			)
			commands.failures["cp -pr /storage/d /scratch/d"] = notFound(
				"cp -pr /storage/d /scratch/d",
				"cp: cannot stat '/storage/d': No such file or directory\n",
			)

			err := posix.Copy(ctx, "/storage/f", "/scratch/f")
			Ω(errors.Is(err, ErrTransfer)).Should(BeTrue())

			err = posix.CopyRecursive(ctx, "/storage/d", "/scratch/d")
			Ω(errors.Is(err, ErrTransfer)).Should(BeTrue())
		})

		It("should report other failures as ErrCommandFailed", func() {
			commands.failures["mkdir -p /proc/x"] = &shell.CLIError{
				Command:    "mkdir -p /proc/x",
				ExitStatus: 1,
				Stderr:     "mkdir: cannot create directory '/proc/x': No such file or directory\n",
			}

			err := posix.Mkdir(ctx, "/proc/x")
			Ω(errors.Is(err, ErrCommandFailed)).Should(BeTrue())
		})
	})

	Describe("GetOwner", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
		})

		It("should return the name of the owner", func() {
			path := filepath.Join(dir, "owned")
			Ω(os.WriteFile(path, []byte("x"), 0o644)).Should(Succeed())

			current, err := user.Current()
			Ω(err).ShouldNot(HaveOccurred())

			owner, err := posix.GetOwner(ctx, "file://"+path)
			Ω(err).ShouldNot(HaveOccurred())
			Ω(owner).Should(Equal(current.Username))
		})

		It("should map missing paths to ErrPathNotFound", func() {
			_, err := posix.GetOwner(ctx, filepath.Join(dir, "missing"))
			Ω(errors.Is(err, ErrPathNotFound)).Should(BeTrue())
			Ω(strings.Contains(err.Error(), "missing")).Should(BeTrue())
		})
	})
})
