package tool

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"time"
)

// EnsureTlsCertificate generates a self-signed key pair unless both files already exist.
// It reports whether new files were written.
func EnsureTlsCertificate(organization string, serverCommonName string, serverKeyFilename, serverCertFilename string, hostnames []string) (bool, error) {
	existServerCert, err := IsFileExists(serverCertFilename)
	if err != nil {
		return false, fmt.Errorf("unable to access %s: %w", serverCertFilename, err)
	}
	existServerKey, err := IsFileExists(serverKeyFilename)
	if err != nil {
		return false, fmt.Errorf("unable to access %s: %w", serverKeyFilename, err)
	}
	if existServerCert && existServerKey {
		return false, nil
	}
	return true, GenerateTlsCertificate(organization, serverCommonName, serverKeyFilename, serverCertFilename, hostnames)
}

func GenerateTlsCertificate(
	organization string,
	serverCommonName string,
	serverKeyFilename, serverCertFilename string,
	hostnames []string) error {

	notBefore := time.Now()
	notAfter := notBefore.AddDate(10, 0, 0)

	serialNumberLimit := new(big.Int).Lsh(big.NewInt(1), 128)

	serverKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return err
	}
	if err = keyToFile(serverKeyFilename, serverKey); err != nil {
		return err
	}

	serialNumber, err := rand.Int(rand.Reader, serialNumberLimit)
	if err != nil {
		return err
	}
	serverTemplate := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{organization},
			CommonName:   serverCommonName,
		},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}

	for _, h := range hostnames {
		if ip := net.ParseIP(h); ip != nil {
			serverTemplate.IPAddresses = append(serverTemplate.IPAddresses, ip)
		} else {
			serverTemplate.DNSNames = append(serverTemplate.DNSNames, h)
		}
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, &serverTemplate, &serverTemplate, &serverKey.PublicKey, serverKey)
	if err != nil {
		return err
	}
	return certToFile(serverCertFilename, derBytes)
}

// LocalHostnames lists the host name and the non loopback addresses, for the certificate.
func LocalHostnames() []string {
	var hostnames []string
	if hostname, err := os.Hostname(); err == nil {
		hostnames = append(hostnames, hostname, hostname+".local")
	}
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return hostnames
	}
	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok && !ipNet.IP.IsLoopback() {
			hostnames = append(hostnames, ipNet.IP.String())
		}
	}
	return hostnames
}

func keyToFile(filename string, key *ecdsa.PrivateKey) error {
	file, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer file.Close()
	b, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return err
	}
	return pem.Encode(file, &pem.Block{Type: "EC PRIVATE KEY", Bytes: b})
}

func certToFile(filename string, derBytes []byte) error {
	certOut, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err = pem.Encode(certOut, &pem.Block{Type: "CERTIFICATE", Bytes: derBytes}); err != nil {
		certOut.Close()
		return err
	}
	return certOut.Close()
}
