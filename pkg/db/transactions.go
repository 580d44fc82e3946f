package db

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	"github.com/tonkeeper/tongo/ton"
	"github.com/txsociety/mentat/pkg/core"
)

// SaveTransactions journals a batch of converted transactions. Duplicates
// are skipped so a crashed ingestion batch can be replayed whole.
func (c *Connection) SaveTransactions(ctx context.Context, txs []core.Transaction) error {
	for _, tx := range txs {
		var inMessageBytes []byte
		if tx.InMessage != nil {
			inMessageBytes = marshalJSONForDB(*tx.InMessage, tx.Hash)
		}
		outMessages := make([][]byte, len(tx.OutMessages))
		for i, m := range tx.OutMessages {
			outMessages[i] = marshalJSONForDB(m, tx.Hash)
		}
		_, err := c.postgres.Exec(ctx, `
			INSERT INTO mentat.transactions
			(account_id, lt, hash, workchain, shard, seqno,
			 prev_tx_lt, prev_tx_hash, utime, success, total_fees, storage_fees,
			 data, in_message, out_messages)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			ON CONFLICT (account_id, lt) DO NOTHING`,
			tx.Account.ToRaw(), int64(tx.Lt), tx.Hash,
			tx.Block.Workchain, int64(tx.Block.Shard), tx.Block.Seqno,
			int64(tx.PrevTxLt), tx.PrevTxHash, tx.Utime, tx.Success,
			int64(tx.TotalFees), int64(tx.StorageFees),
			tx.Data, inMessageBytes, outMessages)
		if err != nil {
			return err
		}
	}
	return nil
}

// ReplayTransactions feeds every journaled transaction to fn in insertion
// order. The block reference carries the triple only; callers pinning the
// full block id resolve the hashes through the catalog they replayed the
// headers into.
func (c *Connection) ReplayTransactions(ctx context.Context, fn func(core.Transaction) error) error {
	rows, err := c.postgres.Query(ctx, `
		SELECT account_id, lt, hash, workchain, shard, seqno,
		       prev_tx_lt, prev_tx_hash, utime, success, total_fees, storage_fees,
		       data, in_message, out_messages
		FROM mentat.transactions ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			tx                                        core.Transaction
			account                                   string
			lt, shard, prevLt, totalFees, storageFees int64
			inMessageBytes                            []byte
			outMessages                               [][]byte
		)
		err := rows.Scan(&account, &lt, &tx.Hash, &tx.Block.Workchain, &shard, &tx.Block.Seqno,
			&prevLt, &tx.PrevTxHash, &tx.Utime, &tx.Success, &totalFees, &storageFees,
			&tx.Data, &inMessageBytes, &outMessages)
		if err != nil {
			return err
		}
		if tx.Account, err = ton.ParseAccountID(account); err != nil {
			return err
		}
		tx.Lt = uint64(lt)
		tx.Block.Shard = uint64(shard)
		tx.PrevTxLt = uint64(prevLt)
		tx.TotalFees = uint64(totalFees)
		tx.StorageFees = uint64(storageFees)
		if len(inMessageBytes) > 0 {
			var msg core.Message
			if err := decodeMessage(inMessageBytes, &msg); err != nil {
				return err
			}
			tx.InMessage = &msg
		}
		for _, m := range outMessages {
			var msg core.Message
			if err := decodeMessage(m, &msg); err != nil {
				return err
			}
			tx.OutMessages = append(tx.OutMessages, msg)
		}
		if err := fn(tx); err != nil {
			return err
		}
	}
	return rows.Err()
}

func decodeMessage(data []byte, msg *core.Message) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	return decoder.Decode(msg)
}

func marshalJSONForDB(m core.Message, txHash ton.Bits256) []byte {
	data, err := json.Marshal(m)
	if err != nil {
		slog.Error("failed to marshal msg for transaction", "error", err.Error(), "tx_hash", txHash.Hex())
	}
	return data
}
