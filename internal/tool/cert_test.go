package tool

import (
	"crypto/tls"
	"crypto/x509"
	"path/filepath"
	"testing"
)

func TestEnsureTlsCertificate(t *testing.T) {
	dir := t.TempDir()
	keyFilename := filepath.Join(dir, "key.pem")
	certFilename := filepath.Join(dir, "cert.pem")

	generated, err := EnsureTlsCertificate("navlink", "Navlink Server", keyFilename, certFilename, []string{"navlink.local", "192.168.1.20"})
	if err != nil {
		t.Fatalf("EnsureTlsCertificate: %v", err)
	}
	if !generated {
		t.Fatal("expected new files on first call")
	}

	pair, err := tls.LoadX509KeyPair(certFilename, keyFilename)
	if err != nil {
		t.Fatalf("LoadX509KeyPair: %v", err)
	}
	cert, err := x509.ParseCertificate(pair.Certificate[0])
	if err != nil {
		t.Fatalf("ParseCertificate: %v", err)
	}
	if len(cert.DNSNames) != 1 || cert.DNSNames[0] != "navlink.local" {
		t.Errorf("DNSNames = %v", cert.DNSNames)
	}
	if len(cert.IPAddresses) != 1 || cert.IPAddresses[0].String() != "192.168.1.20" {
		t.Errorf("IPAddresses = %v", cert.IPAddresses)
	}

	generated, err = EnsureTlsCertificate("navlink", "Navlink Server", keyFilename, certFilename, nil)
	if err != nil || generated {
		t.Errorf("second call: generated = %v, err = %v", generated, err)
	}
}
