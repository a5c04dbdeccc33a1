package fs_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/uob-dice/dice-lib/fs"
)

var _ = Describe("Registry", func() {
	var (
		constructed map[string]int
		registry    *Registry
	)

	entry := func(protocol string, constructed map[string]int) RegistryEntry {
		return RegistryEntry{
			Protocol: protocol,
			Factory: func(context.Context) (FileSystem, error) {
				constructed[protocol]++
				return NewPosixFileSystem(nil), nil
			},
		}
	}

	BeforeEach(func() {
		constructed = map[string]int{}

		var err error
		registry, err = NewRegistry(nil, ProtocolFile,
			entry(ProtocolHDFS, constructed),
			entry(ProtocolFile, constructed),
			entry(ProtocolS3, constructed),
		)
		Ω(err).ShouldNot(HaveOccurred())
	})

	It("should require an entry for the default protocol", func() {
		_, err := NewRegistry(nil, ProtocolFile, entry(ProtocolHDFS, constructed))
		Ω(errors.Is(err, ErrConfiguration)).Should(BeTrue())
	})

	It("should list protocols in resolution order", func() {
		Ω(registry.Protocols()).Should(Equal([]string{ProtocolHDFS, ProtocolFile, ProtocolS3}))
	})

	It("should resolve by protocol prefix", func() {
		Ω(registry.ProtocolOf("hdfs:///user/x")).Should(Equal(ProtocolHDFS))
		Ω(registry.ProtocolOf("s3://bucket/key")).Should(Equal(ProtocolS3))
		Ω(registry.ProtocolOf("file:///tmp")).Should(Equal(ProtocolFile))
	})

	It("should fall back to the default protocol", func() {
		Ω(registry.ProtocolOf("/tmp/x")).Should(Equal(ProtocolFile))
		Ω(registry.ProtocolOf("nfs:///software")).Should(Equal(ProtocolFile))
		Ω(registry.ProtocolOf("root://host//path")).Should(Equal(ProtocolFile))
	})

	It("should construct each backend once", func() {
		first, err := registry.Resolve(context.Background(), "hdfs:///a")
		Ω(err).ShouldNot(HaveOccurred())
		second, err := registry.Resolve(context.Background(), "hdfs:///b")
		Ω(err).ShouldNot(HaveOccurred())

		Ω(second).Should(BeIdenticalTo(first))
		Ω(constructed).Should(Equal(map[string]int{ProtocolHDFS: 1}))
		Ω(registry.Backends()).Should(HaveLen(1))
	})

	It("should pass the context of the call to the factory", func() {
		type ctxKey struct{}
		var seen interface{}

		registry, err := NewRegistry(nil, ProtocolFile,
			RegistryEntry{
				Protocol: ProtocolFile,
				Factory: func(ctx context.Context) (FileSystem, error) {
					seen = ctx.Value(ctxKey{})
					return NewPosixFileSystem(nil), nil
				},
			},
		)
		Ω(err).ShouldNot(HaveOccurred())

		_, err = registry.Resolve(context.WithValue(context.Background(), ctxKey{}, "caller"), "/tmp")
		Ω(err).ShouldNot(HaveOccurred())
		Ω(seen).Should(Equal("caller"))
	})

	It("should not construct backends for done contexts", func() {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := registry.Backend(cancelled, ProtocolHDFS)
		Ω(errors.Is(err, context.Canceled)).Should(BeTrue())
		Ω(constructed).Should(BeEmpty())

		_, err = registry.Backend(context.Background(), ProtocolHDFS)
		Ω(err).ShouldNot(HaveOccurred())
		Ω(constructed).Should(Equal(map[string]int{ProtocolHDFS: 1}))
	})

	It("should retry failed constructions", func() {
		attempts := 0
		registry, err := NewRegistry(nil, ProtocolFile,
			RegistryEntry{
				Protocol: ProtocolFile,
				Factory: func(context.Context) (FileSystem, error) {
					attempts++
					if attempts == 1 {
						return nil, ErrBackendUnavailable
					}
					return NewPosixFileSystem(nil), nil
				},
			},
		)
		Ω(err).ShouldNot(HaveOccurred())

		_, err = registry.Resolve(context.Background(), "/tmp")
		Ω(err).Should(MatchError(ErrBackendUnavailable))

		backend, err := registry.Resolve(context.Background(), "/tmp")
		Ω(err).ShouldNot(HaveOccurred())
		Ω(backend.Protocol()).Should(Equal(ProtocolFile))
		Ω(attempts).Should(Equal(2))
	})
})
