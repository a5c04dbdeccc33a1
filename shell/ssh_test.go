package shell_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"net"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/ssh"

	. "github.com/uob-dice/dice-lib/shell"
)

var _ = Describe("DialSSH", func() {
	var (
		home    string
		keyFile string
		addr    string
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()

		home = GinkgoT().TempDir()
		oldHome, hadHome := os.LookupEnv("HOME")
		Ω(os.Setenv("HOME", home)).Should(Succeed())
		DeferCleanup(func() {
			if hadHome {
				_ = os.Setenv("HOME", oldHome)
			} else {
				_ = os.Unsetenv("HOME")
			}
		})

		_, key, err := ed25519.GenerateKey(rand.Reader)
		Ω(err).ShouldNot(HaveOccurred())
		block, err := ssh.MarshalPrivateKey(key, "")
		Ω(err).ShouldNot(HaveOccurred())
		keyFile = filepath.Join(GinkgoT().TempDir(), "id_ed25519")
		Ω(os.WriteFile(keyFile, pem.EncodeToMemory(block), 0o600)).Should(Succeed())

		// Nothing listens on addr, dialing it fails.
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Ω(err).ShouldNot(HaveOccurred())
		addr = listener.Addr().String()
		Ω(listener.Close()).Should(Succeed())
	})

	It("should verify host keys against ~/.ssh/known_hosts by default", func() {
		_, err := DialSSH(ctx, &SSHConfig{Addr: addr, User: "dice", KeyFile: keyFile})
		Ω(err).Should(HaveOccurred())
		Ω(err.Error()).Should(ContainSubstring("read known hosts"))
		Ω(err.Error()).Should(ContainSubstring(filepath.Join(home, ".ssh", "known_hosts")))

		Ω(os.MkdirAll(filepath.Join(home, ".ssh"), 0o700)).Should(Succeed())
		Ω(os.WriteFile(filepath.Join(home, ".ssh", "known_hosts"), nil, 0o600)).Should(Succeed())

		_, err = DialSSH(ctx, &SSHConfig{Addr: addr, User: "dice", KeyFile: keyFile})
		Ω(err).Should(HaveOccurred())
		Ω(err.Error()).ShouldNot(ContainSubstring("read known hosts"))
		Ω(err.Error()).Should(ContainSubstring("dial"))
	})

	It("should fail for missing known_hosts files", func() {
		_, err := DialSSH(ctx, &SSHConfig{
			Addr:           addr,
			User:           "dice",
			KeyFile:        keyFile,
			KnownHostsFile: filepath.Join(home, "missing"),
		})
		Ω(err).Should(HaveOccurred())
		Ω(err.Error()).Should(ContainSubstring("read known hosts"))
	})

	It("should only skip host key verification if insecure", func() {
		_, err := DialSSH(ctx, &SSHConfig{
			Addr:     addr,
			User:     "dice",
			KeyFile:  keyFile,
			Insecure: true,
		})
		Ω(err).Should(HaveOccurred())
		Ω(err.Error()).ShouldNot(ContainSubstring("read known hosts"))
		Ω(err.Error()).Should(ContainSubstring("dial"))
	})
})
