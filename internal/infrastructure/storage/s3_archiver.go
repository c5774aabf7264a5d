// Package storage archiva los XML firmados en almacenamiento compatible con S3 (AWS, MinIO, R2).
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/pkg/config"
)

// S3Archiver guarda cada XML firmado bajo <prefix><YYYY>/<MM>/<ID>.xml.
type S3Archiver struct {
	client s3iface.S3API
	bucket string
	prefix string
}

// NewS3Archiver crea la sesión con credenciales estáticas si vienen en la configuración;
// si no, usa la cadena de credenciales por defecto del SDK.
func NewS3Archiver(cfg config.ArchiveConfig) (*S3Archiver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage: bucket S3 no configurado")
	}
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(cfg.ForcePathStyle),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("storage: crear sesión S3: %w", err)
	}
	return NewS3ArchiverWithClient(s3.New(sess), cfg.Bucket, cfg.Prefix), nil
}

// NewS3ArchiverWithClient permite inyectar el cliente (tests, clientes ya configurados).
func NewS3ArchiverWithClient(client s3iface.S3API, bucket, prefix string) *S3Archiver {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Archiver{client: client, bucket: bucket, prefix: prefix}
}

// Key devuelve la clave del objeto para la factura.
func (a *S3Archiver) Key(inv *entity.Invoice) string {
	year, month := "0000", "00"
	if parts := strings.Split(inv.IssueDate, "-"); len(parts) == 3 {
		year, month = parts[0], parts[1]
	}
	return fmt.Sprintf("%s%s/%s/%s.xml", a.prefix, year, month, inv.ID)
}

// Archive sube el XML firmado y devuelve la URI s3://bucket/key.
func (a *S3Archiver) Archive(ctx context.Context, inv *entity.Invoice, signedXML []byte) (string, error) {
	key := a.Key(inv)
	_, err := a.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(signedXML),
		ContentType:   aws.String("application/xml"),
		ContentLength: aws.Int64(int64(len(signedXML))),
		Metadata: map[string]*string{
			"invoice-uuid":    aws.String(inv.UUID),
			"invoice-counter": aws.String(strconv.FormatInt(inv.CounterValue, 10)),
			"invoice-status":  aws.String(inv.Status),
		},
	})
	if err != nil {
		return "", fmt.Errorf("storage: subir %s: %w", key, err)
	}
	return "s3://" + a.bucket + "/" + key, nil
}
