package osutils_test

import (
	"context"
	"errors"
	"os/exec"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	pkgErrors "github.com/pkg/errors"

	. "github.com/uob-dice/dice-lib/internal/osutils"
)

var _ = Describe("IsExecNotFound", func() {
	It("should detect missing executables", func() {
		err := exec.CommandContext(context.Background(), "dice-command-that-does-not-exist").Run()
		Ω(IsExecNotFound(err)).Should(BeTrue())
		Ω(IsExecNotFound(pkgErrors.Wrap(err, "wrapped"))).Should(BeTrue())
	})

	It("should not match other errors", func() {
		Ω(IsExecNotFound(errors.New("some error"))).Should(BeFalse())
		Ω(IsExecNotFound(nil)).Should(BeFalse())
	})
})

var _ = Describe("IsNotExistMessage", func() {
	It("should detect missing path messages", func() {
		Ω(IsNotExistMessage("du: cannot access '/nope': No such file or directory\n")).Should(BeTrue())
		Ω(IsNotExistMessage("ls: cannot access '/nope': No such file or directory\n")).Should(BeTrue())
		Ω(IsNotExistMessage("cp: cannot stat '/nope': No such file or directory\n")).Should(BeTrue())
	})

	It("should not match other messages", func() {
		Ω(IsNotExistMessage("du: cannot read directory '/root': Permission denied\n")).Should(BeFalse())
		Ω(IsNotExistMessage("")).Should(BeFalse())
	})
})
