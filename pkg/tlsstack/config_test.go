package tlsstack

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSelfSignedCert(t *testing.T) (chainFile, keyFile string) {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "relay-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		IsCA:         true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}

	dir := t.TempDir()
	chainFile = filepath.Join(dir, "chain.pem")
	keyFile = filepath.Join(dir, "key.pem")
	if err := os.WriteFile(chainFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600); err != nil {
		t.Fatalf("write chain: %v", err)
	}
	if err := os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	return chainFile, keyFile
}

func TestBuildRejectsMissingFiles(t *testing.T) {
	if _, err := Build(Config{}); err == nil {
		t.Fatal("Build with no chain/key files should fail")
	}
	if _, err := Build(Config{ChainFile: "/nonexistent/chain.pem", KeyFile: "/nonexistent/key.pem"}); err == nil {
		t.Fatal("Build with nonexistent files should fail")
	}
}

func TestBuildPlatformNativeProfile(t *testing.T) {
	chain, key := writeSelfSignedCert(t)
	cfg, err := Build(Config{ChainFile: chain, KeyFile: key, Stack: StackPlatformNative})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if cfg.MinVersion != tls.VersionTLS12 {
		t.Fatalf("MinVersion = %x, want TLS 1.2", cfg.MinVersion)
	}
	if len(cfg.Certificates) != 1 {
		t.Fatalf("Certificates = %d, want 1", len(cfg.Certificates))
	}
}

func TestBuildRustlsEquivalentProfile(t *testing.T) {
	chain, key := writeSelfSignedCert(t)
	cfg, err := Build(Config{ChainFile: chain, KeyFile: key, Stack: StackRustlsEquivalent})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if cfg.MinVersion != tls.VersionTLS13 {
		t.Fatalf("MinVersion = %x, want TLS 1.3", cfg.MinVersion)
	}
	if len(cfg.CurvePreferences) == 0 {
		t.Fatal("expected a restricted curve preference list")
	}
}

func TestBuildDefaultsToPlatformNative(t *testing.T) {
	chain, key := writeSelfSignedCert(t)
	cfg, err := Build(Config{ChainFile: chain, KeyFile: key})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if cfg.MinVersion != tls.VersionTLS12 {
		t.Fatalf("MinVersion = %x, want the platform-native default", cfg.MinVersion)
	}
}

func TestBuildRejectsUnknownStack(t *testing.T) {
	chain, key := writeSelfSignedCert(t)
	if _, err := Build(Config{ChainFile: chain, KeyFile: key, Stack: "quantum-resistant"}); err == nil {
		t.Fatal("Build with an unknown stack should fail")
	}
}

func TestBuildRequiresClientCert(t *testing.T) {
	chain, key := writeSelfSignedCert(t)
	caFile, _ := writeSelfSignedCert(t)
	cfg, err := Build(Config{ChainFile: chain, KeyFile: key, ClientCAFile: caFile, RequireClientCert: true})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if cfg.ClientAuth != tls.RequireAndVerifyClientCert {
		t.Fatalf("ClientAuth = %v, want RequireAndVerifyClientCert", cfg.ClientAuth)
	}
}
