package stores

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/codeAuth/credential"
	"github.com/redis/go-redis/v9"
)

const (
	credentialRecordVersionV1 = 1

	maxRetries = 4

	// expiryGrace keeps a record in Redis past its logical expiry so an
	// ExpiresAt == now redemption still finds it.
	expiryGrace = time.Second
)

var allPurposes = []credential.Purpose{
	credential.PurposeRequestLogin,
	credential.PurposeResendCode,
	credential.PurposeRequestResetPassword,
	credential.PurposeSetupPassword,
}

// CredentialStore implements credential.Store on Redis.
type CredentialStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewCredentialStore(redisClient redis.UniversalClient, prefix string) *CredentialStore {
	if prefix == "" {
		prefix = "acr"
	}
	return &CredentialStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *CredentialStore) credKey(binding, code string) string {
	return s.prefix + ":c:" + binding + ":" + code
}

func (s *CredentialStore) purposeKey(binding string, purpose credential.Purpose) string {
	return s.prefix + ":p:" + binding + ":" + strconv.Itoa(int(purpose))
}

func (s *CredentialStore) Replace(ctx context.Context, c credential.Credential) error {
	encoded, err := encodeCredential(c)
	if err != nil {
		return err
	}

	ttl := c.ExpiresAt.Sub(c.IssuedAt) + expiryGrace
	if ttl <= expiryGrace {
		return errors.New("credential already expired")
	}

	setKey := s.purposeKey(c.Binding, c.Purpose)
	credKey := s.credKey(c.Binding, c.Code)

	for i := 0; i < maxRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			previous, err := tx.SMembers(ctx, setKey).Result()
			if err != nil {
				return err
			}

			exists, err := tx.Exists(ctx, credKey).Result()
			if err != nil {
				return err
			}
			if exists > 0 && !containsCode(previous, c.Code) {
				return credential.ErrCodeCollision
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				for _, code := range previous {
					pipe.Del(ctx, s.credKey(c.Binding, code))
				}
				pipe.Del(ctx, setKey)
				pipe.Set(ctx, credKey, encoded, ttl)
				pipe.SAdd(ctx, setKey, c.Code)
				pipe.PExpire(ctx, setKey, ttl)
				return nil
			})
			return err
		}, setKey, credKey)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			if errors.Is(err, credential.ErrCodeCollision) {
				return err
			}
			return fmt.Errorf("%w: %v", credential.ErrUnavailable, err)
		}
		return nil
	}

	return fmt.Errorf("%w: replace contention", credential.ErrUnavailable)
}

func (s *CredentialStore) Redeem(ctx context.Context, m credential.Matcher, now time.Time) (credential.Credential, error) {
	credKey := s.credKey(m.Binding, m.Code)

	for i := 0; i < maxRetries; i++ {
		var matched credential.Credential

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, credKey).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeCredential(data)
			if err != nil {
				return err
			}
			setKey := s.purposeKey(record.Binding, record.Purpose)

			if record.Expired(now) {
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, credKey)
					pipe.SRem(ctx, setKey, record.Code)
					return nil
				})
				if err != nil {
					return err
				}
				return credential.ErrNotFound
			}

			if m.Email != "" && !strings.EqualFold(record.Email, m.Email) {
				return credential.ErrNotFound
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, credKey)
				pipe.SRem(ctx, setKey, record.Code)
				return nil
			})
			if err != nil {
				return err
			}

			matched = record
			return nil
		}, credKey)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil), errors.Is(err, credential.ErrNotFound):
				return credential.Credential{}, credential.ErrNotFound
			default:
				return credential.Credential{}, fmt.Errorf("%w: %v", credential.ErrUnavailable, err)
			}
		}

		return matched, nil
	}

	return credential.Credential{}, credential.ErrNotFound
}

func (s *CredentialStore) Purge(ctx context.Context, binding string, purpose credential.Purpose) error {
	return s.purge(ctx, binding, []credential.Purpose{purpose})
}

func (s *CredentialStore) PurgeAll(ctx context.Context, binding string) error {
	return s.purge(ctx, binding, allPurposes)
}

func (s *CredentialStore) purge(ctx context.Context, binding string, purposes []credential.Purpose) error {
	setKeys := make([]string, 0, len(purposes))
	for _, p := range purposes {
		setKeys = append(setKeys, s.purposeKey(binding, p))
	}

	for i := 0; i < maxRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			var codes []string
			for _, key := range setKeys {
				members, err := tx.SMembers(ctx, key).Result()
				if err != nil {
					return err
				}
				codes = append(codes, members...)
			}

			_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				for _, code := range codes {
					pipe.Del(ctx, s.credKey(binding, code))
				}
				pipe.Del(ctx, setKeys...)
				return nil
			})
			return err
		}, setKeys...)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: %v", credential.ErrUnavailable, err)
		}
		return nil
	}

	return fmt.Errorf("%w: purge contention", credential.ErrUnavailable)
}

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

func encodeCredential(c credential.Credential) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(credentialRecordVersionV1)
	buf.WriteByte(byte(c.Purpose))

	if err := binary.Write(&buf, binary.BigEndian, c.IssuedAt.UnixNano()); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, c.ExpiresAt.UnixNano()); err != nil {
		return nil, err
	}

	for _, field := range []string{c.ID, c.Binding, c.Email, c.Code} {
		if len(field) > 65535 {
			return nil, errors.New("credential record field too long")
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(field))); err != nil {
			return nil, err
		}
		buf.WriteString(field)
	}

	return buf.Bytes(), nil
}

func decodeCredential(data []byte) (credential.Credential, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return credential.Credential{}, err
	}
	if version != credentialRecordVersionV1 {
		return credential.Credential{}, errors.New("invalid credential record version")
	}

	purpose, err := reader.ReadByte()
	if err != nil {
		return credential.Credential{}, err
	}

	var issuedAt, expiresAt int64
	if err := binary.Read(reader, binary.BigEndian, &issuedAt); err != nil {
		return credential.Credential{}, err
	}
	if err := binary.Read(reader, binary.BigEndian, &expiresAt); err != nil {
		return credential.Credential{}, err
	}

	fields := make([]string, 4)
	for i := range fields {
		var n uint16
		if err := binary.Read(reader, binary.BigEndian, &n); err != nil {
			return credential.Credential{}, err
		}
		raw := make([]byte, n)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return credential.Credential{}, err
		}
		fields[i] = string(raw)
	}

	return credential.Credential{
		ID:        fields[0],
		Binding:   fields[1],
		Email:     fields[2],
		Code:      fields[3],
		Purpose:   credential.Purpose(purpose),
		IssuedAt:  time.Unix(0, issuedAt),
		ExpiresAt: time.Unix(0, expiresAt),
	}, nil
}
