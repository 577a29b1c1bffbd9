// Package testdb 测试用的 SQLite 图书库
package testdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"schemacrawler/internal/adapter"
)

// BooksDDL 图书库结构：BOOK_AUTHORS 的两列没有声明外键，用来推断弱关联
const BooksDDL = `
CREATE TABLE PUBLISHERS (
	ID INTEGER NOT NULL PRIMARY KEY,
	PUBLISHER VARCHAR(255)
);
CREATE TABLE AUTHORS (
	ID INTEGER NOT NULL PRIMARY KEY,
	FIRST_NAME VARCHAR(20) NOT NULL,
	LAST_NAME VARCHAR(20) NOT NULL,
	ADDRESS1 VARCHAR(255),
	ADDRESS2 VARCHAR(255),
	CITY VARCHAR(50),
	STATE CHAR(2),
	POSTAL_CODE VARCHAR(10),
	COUNTRY VARCHAR(50)
);
CREATE INDEX IDX_B_AUTHORS ON AUTHORS (LAST_NAME, FIRST_NAME);
CREATE TABLE BOOKS (
	ID INTEGER NOT NULL PRIMARY KEY,
	TITLE VARCHAR(255) NOT NULL,
	DESCRIPTION VARCHAR(255),
	PUBLISHER_ID INTEGER NOT NULL,
	PUBLICATION_DATE DATE,
	PRICE DECIMAL(10, 2),
	CONSTRAINT FK_BOOKS_PUBLISHER FOREIGN KEY (PUBLISHER_ID) REFERENCES PUBLISHERS (ID)
);
CREATE TABLE BOOK_AUTHORS (
	BOOK_ID INTEGER NOT NULL,
	AUTHOR_ID INTEGER NOT NULL,
	SOME_DATA VARCHAR(30)
);
CREATE UNIQUE INDEX IDX_BOOK_AUTHORS ON BOOK_AUTHORS (BOOK_ID, AUTHOR_ID);
CREATE VIEW AUTHORS_LIST AS SELECT ID, FIRST_NAME, LAST_NAME FROM AUTHORS;
CREATE TRIGGER TRG_AUTHORS AFTER DELETE ON AUTHORS
BEGIN
	DELETE FROM BOOK_AUTHORS WHERE AUTHOR_ID = OLD.ID;
END;
INSERT INTO PUBLISHERS (ID, PUBLISHER) VALUES (1, 'Addison Wesley'), (2, 'O''Reilly');
INSERT INTO AUTHORS (ID, FIRST_NAME, LAST_NAME) VALUES (1, 'Ada', 'Lovelace'), (2, 'Alan', 'Turing');
INSERT INTO BOOKS (ID, TITLE, PUBLISHER_ID) VALUES (1, 'Notes', 1), (2, 'Computable Numbers', 2), (3, 'Engines', 1);
INSERT INTO BOOK_AUTHORS (BOOK_ID, AUTHOR_ID) VALUES (1, 1), (2, 2), (3, 1);
`

// Open 在临时目录建库并返回已连接的适配器，测试结束时关闭
func Open(t *testing.T) *adapter.Adapter {
	t.Helper()
	a, _ := open(t)
	return a
}

// Create 建库后关闭连接，返回连接 URL，供需要自己连接的测试使用
func Create(t *testing.T) string {
	t.Helper()
	a, url := open(t)
	require.NoError(t, a.Close())
	return url
}

func open(t *testing.T) (*adapter.Adapter, string) {
	t.Helper()
	ctx := context.Background()
	url := URL(filepath.Join(t.TempDir(), "books.db"))

	a, err := adapter.Open(ctx, adapter.ConnectionOptions{URL: url}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	_, err = a.DB().ExecContext(ctx, BooksDDL)
	require.NoError(t, err)
	return a, url
}

// URL 数据库文件的连接 URL
func URL(path string) string {
	return "jdbc:sqlite:" + path
}
